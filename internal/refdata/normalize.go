package refdata

import (
	"fmt"
	"strings"

	"github.com/aydocorp/opscomposer/internal/idalloc"
	"github.com/aydocorp/opscomposer/pkg/core"
)

// Fallbacks for directory ships the compendium cannot resolve.
const (
	DefaultCrewRequirement = 1
	UnknownManufacturer    = "Unknown Manufacturer"
	DefaultSize            = "Medium"
)

// Normalizer turns raw directory records into composer persons and vessels,
// enriching ships from the compendium.
type Normalizer struct {
	compendium *Compendium
}

// NewNormalizer creates a Normalizer. A nil compendium resolves nothing.
func NewNormalizer(c *Compendium) *Normalizer {
	if c == nil {
		c = EmptyCompendium()
	}
	return &Normalizer{compendium: c}
}

// People normalizes a directory listing. Users without an id are dropped.
func (n *Normalizer) People(users []core.DirectoryUser) []core.Person {
	out := make([]core.Person, 0, len(users))
	for _, u := range users {
		if strings.TrimSpace(u.ID) == "" {
			continue
		}
		out = append(out, n.Person(u))
	}
	return out
}

// Person normalizes one directory user.
func (n *Normalizer) Person(u core.DirectoryUser) core.Person {
	p := core.Person{
		ID:          u.ID,
		DisplayName: strings.TrimSpace(u.AydoHandle),
	}
	if p.DisplayName == "" {
		p.DisplayName = u.ID
	}
	for i, raw := range u.Ships {
		p.OwnedVessels = append(p.OwnedVessels, n.Vessel(u.ID, i, raw))
	}
	return p
}

// Vessel normalizes one directory ship. Fields the directory supplies win over
// compendium values; anything still missing gets the package defaults.
func (n *Normalizer) Vessel(ownerID string, index int, raw core.RawShip) core.Vessel {
	ref, found := n.compendium.Lookup(raw.Name, raw.Type)

	v := core.Vessel{
		VesselID:     strings.TrimSpace(raw.ID),
		Name:         firstNonEmpty(raw.Name, raw.Type, ref.Name),
		Type:         firstNonEmpty(raw.Type, ref.Type, raw.Name),
		Manufacturer: firstNonEmpty(raw.Manufacturer, ref.Manufacturer, UnknownManufacturer),
		Image:        firstNonEmpty(raw.Image, ref.Image),
		Size:         firstNonEmpty(raw.Size, ref.Size, DefaultSize),
	}
	if v.VesselID == "" {
		v.VesselID = idalloc.Stable(idalloc.VesselPrefix, fmt.Sprintf("%s/%d/%s", ownerID, index, v.Name))
	}

	switch {
	case raw.Crew > 0:
		v.CrewCapacity = core.IntPtr(raw.Crew)
	case found && ref.CrewCapacity != nil:
		v.CrewCapacity = core.IntPtr(*ref.CrewCapacity)
	}

	v.CrewRequirement = DefaultCrewRequirement
	if found && ref.CrewRequirement > 0 {
		v.CrewRequirement = ref.CrewRequirement
	}

	if raw.Role != "" {
		v.RoleTags = []string{raw.Role}
	} else if found {
		v.RoleTags = ref.RoleTags
	}

	if found {
		v.Length, v.Beam, v.Height = ref.Length, ref.Beam, ref.Height
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
