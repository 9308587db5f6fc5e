// Package refdata loads the read-only reference catalogues the composer draws
// from: the user directory and the vessel compendium.
package refdata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aydocorp/opscomposer/internal/idalloc"
	"github.com/aydocorp/opscomposer/pkg/core"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ShipPrefix prefixes ids derived for compendium entries.
const ShipPrefix = "ship"

// DefaultLookupCacheSize is used when a non-positive size is configured.
const DefaultLookupCacheSize = 512

// Entry is one vessel model in the compendium, as served over HTTP or read from file.
type Entry struct {
	ID           string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string   `json:"name" yaml:"name"`
	Type         string   `json:"type,omitempty" yaml:"type,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	MaxCrew      *int     `json:"maxCrew,omitempty" yaml:"maxCrew,omitempty"`
	MinCrew      int      `json:"minCrew,omitempty" yaml:"minCrew,omitempty"`
	Size         string   `json:"size,omitempty" yaml:"size,omitempty"`
	Roles        []string `json:"roles,omitempty" yaml:"roles,omitempty"`
	Image        string   `json:"image,omitempty" yaml:"image,omitempty"`
	Length       float64  `json:"length,omitempty" yaml:"length,omitempty"`
	Beam         float64  `json:"beam,omitempty" yaml:"beam,omitempty"`
	Height       float64  `json:"height,omitempty" yaml:"height,omitempty"`
}

// Vessel converts the entry to the composer's vessel shape.
func (e Entry) Vessel() core.Vessel {
	id := strings.TrimSpace(e.ID)
	if id == "" {
		id = idalloc.Stable(ShipPrefix, e.Manufacturer+"/"+e.Name)
	}
	v := core.Vessel{
		VesselID:        id,
		Name:            e.Name,
		Type:            e.Type,
		Manufacturer:    e.Manufacturer,
		CrewRequirement: e.MinCrew,
		Image:           e.Image,
		Size:            e.Size,
		Length:          e.Length,
		Beam:            e.Beam,
		Height:          e.Height,
	}
	if v.Type == "" {
		v.Type = e.Name
	}
	if e.MaxCrew != nil {
		v.CrewCapacity = core.IntPtr(*e.MaxCrew)
	}
	if len(e.Roles) > 0 {
		v.RoleTags = append([]string(nil), e.Roles...)
	}
	return v
}

type lookupResult struct {
	index int
	found bool
}

// Compendium is an indexed, immutable vessel catalogue. Lookups are safe for
// concurrent use.
type Compendium struct {
	vessels []core.Vessel
	byName  map[string]int
	byType  map[string]int
	lookups *lru.Cache[string, lookupResult]
}

// NewCompendium indexes entries. Entries without a name are skipped.
func NewCompendium(entries []Entry, cacheSize int) (*Compendium, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultLookupCacheSize
	}
	cache, err := lru.New[string, lookupResult](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating lookup cache: %w", err)
	}

	c := &Compendium{
		byName:  make(map[string]int, len(entries)),
		byType:  make(map[string]int, len(entries)),
		lookups: cache,
	}
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		v := e.Vessel()
		idx := len(c.vessels)
		c.vessels = append(c.vessels, v)
		if _, dup := c.byName[normalizeKey(v.Name)]; !dup {
			c.byName[normalizeKey(v.Name)] = idx
		}
		if _, dup := c.byType[normalizeKey(v.Type)]; !dup {
			c.byType[normalizeKey(v.Type)] = idx
		}
	}
	return c, nil
}

// EmptyCompendium returns a compendium with no entries.
func EmptyCompendium() *Compendium {
	// only a non-positive cache size can fail
	c, _ := NewCompendium(nil, DefaultLookupCacheSize)
	return c
}

// Len returns the number of vessel models.
func (c *Compendium) Len() int {
	return len(c.vessels)
}

// Vessels returns a copy of the catalogue in load order.
func (c *Compendium) Vessels() []core.Vessel {
	out := make([]core.Vessel, len(c.vessels))
	for i, v := range c.vessels {
		out[i] = v.Clone()
	}
	return out
}

// Manufacturers returns the distinct manufacturers, sorted.
func (c *Compendium) Manufacturers() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range c.vessels {
		if v.Manufacturer == "" {
			continue
		}
		if _, ok := seen[v.Manufacturer]; ok {
			continue
		}
		seen[v.Manufacturer] = struct{}{}
		out = append(out, v.Manufacturer)
	}
	sort.Strings(out)
	return out
}

// Lookup resolves a directory ship against the catalogue, trying the name,
// then the type, and finally the longest catalogue name contained in either.
func (c *Compendium) Lookup(name, typ string) (core.Vessel, bool) {
	key := normalizeKey(name) + "\x00" + normalizeKey(typ)
	if r, ok := c.lookups.Get(key); ok {
		return c.result(r)
	}
	r := c.resolve(normalizeKey(name), normalizeKey(typ))
	c.lookups.Add(key, r)
	return c.result(r)
}

func (c *Compendium) result(r lookupResult) (core.Vessel, bool) {
	if !r.found {
		return core.Vessel{}, false
	}
	return c.vessels[r.index].Clone(), true
}

func (c *Compendium) resolve(name, typ string) lookupResult {
	for _, k := range []string{name, typ} {
		if k == "" {
			continue
		}
		if i, ok := c.byName[k]; ok {
			return lookupResult{index: i, found: true}
		}
		if i, ok := c.byType[k]; ok {
			return lookupResult{index: i, found: true}
		}
	}

	best, bestLen := -1, 0
	for i, v := range c.vessels {
		n := normalizeKey(v.Name)
		if len(n) <= bestLen {
			continue
		}
		if (name != "" && strings.Contains(name, n)) || (typ != "" && strings.Contains(typ, n)) {
			best, bestLen = i, len(n)
		}
	}
	if best < 0 {
		return lookupResult{}
	}
	return lookupResult{index: best, found: true}
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
