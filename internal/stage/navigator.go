// Package stage implements the accordion state machine that decides which
// composer stage is open and routes focus when the stage changes programmatically.
package stage

import (
	"slices"
	"sync"

	"github.com/aydocorp/opscomposer/internal/rules"
	"github.com/aydocorp/opscomposer/pkg/core"
)

// Stage is one of the four collapsible composer sections, or Closed.
type Stage int

const (
	Closed Stage = iota
	Overview
	Personnel
	Vessels
	Review
)

// All lists the four stages in display order.
var All = []Stage{Overview, Personnel, Vessels, Review}

func (s Stage) String() string {
	switch s {
	case Overview:
		return "Overview"
	case Personnel:
		return "Personnel"
	case Vessels:
		return "Vessels"
	case Review:
		return "Review"
	}
	return "Closed"
}

// HeaderID returns the element id of the stage header that receives focus.
func (s Stage) HeaderID() string {
	switch s {
	case Overview:
		return "stage-overview"
	case Personnel:
		return "stage-personnel"
	case Vessels:
		return "stage-vessels"
	case Review:
		return "stage-review"
	}
	return ""
}

// Focuser moves input focus. FocusStage must also scroll the header into view.
type Focuser interface {
	FocusStage(Stage)
	FocusField(core.FieldID)
}

// NopFocuser ignores focus requests.
type NopFocuser struct{}

func (NopFocuser) FocusStage(Stage)        {}
func (NopFocuser) FocusField(core.FieldID) {}

// Navigator tracks the open stage. At most one stage is open at a time.
type Navigator struct {
	mu        sync.Mutex
	current   Stage
	focus     Focuser
	listeners []func(Stage)
}

// New creates a Navigator. Hydrated missions open on Review, new ones on Overview.
func New(editing bool, focus Focuser) *Navigator {
	if focus == nil {
		focus = NopFocuser{}
	}
	initial := Overview
	if editing {
		initial = Review
	}
	return &Navigator{current: initial, focus: focus}
}

// SetFocuser swaps the focus target, e.g. once a view has mounted.
func (n *Navigator) SetFocuser(f Focuser) {
	if f == nil {
		f = NopFocuser{}
	}
	n.mu.Lock()
	n.focus = f
	n.mu.Unlock()
}

// OnChange registers fn to be called with the new stage after every change.
func (n *Navigator) OnChange(fn func(Stage)) {
	n.mu.Lock()
	n.listeners = append(n.listeners, fn)
	n.mu.Unlock()
}

// Current returns the open stage, or Closed.
func (n *Navigator) Current() Stage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// IsOpen reports whether s is the open stage.
func (n *Navigator) IsOpen(s Stage) bool {
	return n.Current() == s
}

// Open makes s the open stage.
func (n *Navigator) Open(s Stage) {
	n.set(s)
}

// Toggle opens s, or closes it when it is already open.
func (n *Navigator) Toggle(s Stage) {
	n.update(func(cur Stage) Stage {
		if cur == s {
			return Closed
		}
		return s
	})
}

// GoToSection opens s and moves focus to its header.
func (n *Navigator) GoToSection(s Stage) {
	n.set(s)
	if s == Closed {
		return
	}
	n.focuser().FocusStage(s)
}

// FocusField opens Overview and focuses the given overview field.
func (n *Navigator) FocusField(f core.FieldID) {
	n.set(Overview)
	n.focuser().FocusField(f)
}

// RejectSave reacts to a blocked save. An incomplete overview forces Overview
// open with focus on the first blank field; capacity violations leave the
// current stage alone because Review lists them.
func (n *Navigator) RejectSave(v rules.Verdict) {
	if v.CanSave {
		return
	}
	if !v.OverviewComplete {
		n.FocusField(v.FirstInvalidField)
	}
}

func (n *Navigator) focuser() Focuser {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.focus
}

func (n *Navigator) set(s Stage) {
	n.update(func(Stage) Stage { return s })
}

// update computes the next stage from the current one under a single lock.
func (n *Navigator) update(next func(cur Stage) Stage) {
	n.mu.Lock()
	s := next(n.current)
	if n.current == s {
		n.mu.Unlock()
		return
	}
	n.current = s
	ls := slices.Clone(n.listeners)
	n.mu.Unlock()

	for _, l := range ls {
		l(s)
	}
}
