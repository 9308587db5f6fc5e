// Package idalloc hands out synthetic identifiers for entities that arrive
// without a stable id of their own. Every call site allocates through here so
// that ids share one format.
package idalloc

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Prefixes for the entities that get synthetic ids.
const (
	VesselPrefix  = "vessel"
	MissionPrefix = "mission"
)

// Allocator allocates ids of the form "<prefix>-<uuid>".
type Allocator struct {
	mu     sync.Mutex
	newID  func() string
	issued map[string]struct{}
}

// New creates an Allocator backed by random UUIDs.
func New() *Allocator {
	return &Allocator{
		newID:  func() string { return uuid.NewString() },
		issued: make(map[string]struct{}),
	}
}

// NewWithSource creates an Allocator whose random part comes from src.
// Tests use this for deterministic ids.
func NewWithSource(src func() string) *Allocator {
	a := New()
	a.newID = src
	return a
}

// Next returns a fresh id with the given prefix. It never returns an id it has
// already issued, even if the source repeats.
func (a *Allocator) Next(prefix string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = VesselPrefix
	}
	for {
		id := prefix + "-" + a.newID()
		if _, dup := a.issued[id]; dup {
			continue
		}
		a.issued[id] = struct{}{}
		return id
	}
}

// IsSynthetic reports whether id looks like one produced with prefix.
func IsSynthetic(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"-")
}

// Stable derives a deterministic id from key, so the same catalogue entry or
// directory ship maps to the same id across loads.
func Stable(prefix, key string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = VesselPrefix
	}
	return prefix + "-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.ToLower(key))).String()
}
