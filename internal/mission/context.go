package mission

import (
	"log/slog"
	"sync"
)

// NoMission is reported while nothing is open in the composer.
const NoMission = "No mission open"

// Context holds the mission currently open in the composer
type Context struct {
	mu      sync.RWMutex
	id      string
	name    string
	editing bool
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{name: NoMission}
}

// Current returns the open mission id and name. The id is empty for a new mission.
func (mc *Context) Current() (id, name string) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.id, mc.name
}

// Editing reports whether the open mission was loaded from storage.
func (mc *Context) Editing() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.editing
}

// Set records the open mission
func (mc *Context) Set(id, name string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.id = id
	mc.name = name
	mc.editing = id != ""
}

// Clear resets to the no-mission state
func (mc *Context) Clear() {
	mc.Set("", NoMission)
}

// Attrs returns log attributes for the open mission. It matches logging.ContextProvider.
func (mc *Context) Attrs() []slog.Attr {
	id, name := mc.Current()
	if id == "" {
		return []slog.Attr{slog.String("missionName", name)}
	}
	return []slog.Attr{slog.String("missionName", name), slog.String("missionId", id)}
}
