// Package host is the container around a composer: a live header with the
// save and delete actions, delete confirmation and the initial focus target.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aydocorp/opscomposer/internal/composer"
	"github.com/aydocorp/opscomposer/internal/mission"
	"github.com/aydocorp/opscomposer/internal/signal"
	"github.com/aydocorp/opscomposer/internal/stage"
	"github.com/aydocorp/opscomposer/pkg/core"
)

// DefaultFocusDelay waits for the container to finish opening before focusing.
const DefaultFocusDelay = 350 * time.Millisecond

// SaveSource tags save requests issued from the header.
const SaveSource = "header"

var (
	// ErrNotEditing is returned when deleting a mission that was never saved.
	ErrNotEditing = errors.New("mission has not been saved")
	// ErrNotConfirmed is returned when ConfirmDelete runs without RequestDelete.
	ErrNotConfirmed = errors.New("delete was not requested")
)

// Chip states.
const (
	ChipReady        = "Ready"
	ChipIncomplete   = "Incomplete"
	ChipOverCapacity = "Over capacity"
)

// Header is the sticky header state.
type Header struct {
	StatusChip       string
	MissionStatus    string
	Valid            bool
	SaveEnabled      bool
	DeleteVisible    bool
	ConfirmingDelete bool
	LastError        string
}

// Deleter removes persisted missions. *api.Client satisfies it.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// Host wires a composer to the header actions.
type Host struct {
	composer   *composer.Composer
	bus        *signal.Bus
	deleter    Deleter
	current    *mission.Context
	focusDelay time.Duration
	logger     *slog.Logger

	mu        sync.Mutex
	header    Header
	missionID string
	closed    bool
	onChange  func(Header)
	onClose   func()
	unsubs    []func()
	deleteErr string
}

// Option configures a Host.
type Option func(*Host)

// WithFocusDelay overrides the delay returned by Open.
func WithFocusDelay(d time.Duration) Option {
	return func(h *Host) {
		if d >= 0 {
			h.focusDelay = d
		}
	}
}

// WithHeaderCallback is called with the header after every change.
func WithHeaderCallback(fn func(Header)) Option {
	return func(h *Host) { h.onChange = fn }
}

// WithCloseCallback is called once when the host closes.
func WithCloseCallback(fn func()) Option {
	return func(h *Host) { h.onClose = fn }
}

// WithMissionContext clears ctx when the host closes.
func WithMissionContext(ctx *mission.Context) Option {
	return func(h *Host) { h.current = ctx }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// New attaches a host to c. It takes over c's status callback.
func New(c *composer.Composer, bus *signal.Bus, deleter Deleter, opts ...Option) *Host {
	h := &Host{
		composer:   c,
		bus:        bus,
		deleter:    deleter,
		focusDelay: DefaultFocusDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	c.SetStatusCallback(h.apply)
	if bus != nil {
		h.unsubs = append(h.unsubs, bus.MissionDeleted.Subscribe(h.onMissionDeleted))
	}
	h.apply(c.Status())
	return h
}

// Composer returns the hosted composer.
func (h *Host) Composer() *composer.Composer {
	return h.composer
}

// Header returns the current header state.
func (h *Host) Header() Header {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.header
}

// Closed reports whether the host has closed.
func (h *Host) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Chip renders the status chip text for st.
func Chip(st composer.Status) string {
	state := ChipReady
	switch {
	case !st.Verdict.OverviewComplete:
		state = ChipIncomplete
	case !st.Verdict.VesselsValid:
		state = ChipOverCapacity
	}
	if st.MissionStatus == "" {
		return state
	}
	return st.MissionStatus + " · " + state
}

func (h *Host) apply(st composer.Status) {
	h.mu.Lock()
	h.missionID = st.MissionID
	h.header.StatusChip = Chip(st)
	h.header.MissionStatus = st.MissionStatus
	h.header.Valid = st.Valid
	h.header.SaveEnabled = st.Valid
	h.header.DeleteVisible = st.Editing
	if !st.Editing {
		h.header.ConfirmingDelete = false
	}
	h.header.LastError = st.SaveError
	if h.deleteErr != "" {
		h.header.LastError = h.deleteErr
	}
	hdr, fn := h.header, h.onChange
	h.mu.Unlock()

	if fn != nil {
		fn(hdr)
	}
}

func (h *Host) update(fn func(*Header)) {
	h.mu.Lock()
	fn(&h.header)
	hdr, cb := h.header, h.onChange
	h.mu.Unlock()
	if cb != nil {
		cb(hdr)
	}
}

// Save runs the header save action. When the mission cannot be saved focus
// goes to the first invalid field, or to Vessels when only capacity is
// violated, and false is returned. Otherwise a save request is published for
// the mounted composer.
func (h *Host) Save(ctx context.Context) bool {
	st := h.composer.Status()
	if !st.Valid {
		nav := h.composer.Navigator()
		if !st.Verdict.OverviewComplete {
			nav.FocusField(st.Verdict.FirstInvalidField)
		} else {
			nav.GoToSection(stage.Vessels)
		}
		return false
	}
	if h.bus == nil {
		return false
	}
	h.clearDeleteErr()
	return h.bus.SaveRequested.Publish(ctx, signal.SaveRequest{Source: SaveSource}) > 0
}

// RequestDelete starts the confirmation step. Only persisted missions can be deleted.
func (h *Host) RequestDelete() bool {
	h.mu.Lock()
	visible := h.header.DeleteVisible
	h.mu.Unlock()
	if !visible {
		return false
	}
	h.update(func(hd *Header) { hd.ConfirmingDelete = true })
	return true
}

// CancelDelete leaves the confirmation step.
func (h *Host) CancelDelete() {
	h.update(func(hd *Header) { hd.ConfirmingDelete = false })
}

// ConfirmDelete deletes the open mission, announces it and closes the host.
// On failure the host stays open and the error is shown in the header.
func (h *Host) ConfirmDelete(ctx context.Context) error {
	h.mu.Lock()
	id, confirming, editing := h.missionID, h.header.ConfirmingDelete, h.header.DeleteVisible
	h.mu.Unlock()

	if !editing || id == "" {
		return ErrNotEditing
	}
	if !confirming {
		return ErrNotConfirmed
	}
	if h.deleter == nil {
		return fmt.Errorf("no deleter configured")
	}

	if err := h.deleter.Delete(ctx, id); err != nil {
		h.logger.Error("Failed to delete mission", "missionId", id, "error", err)
		h.mu.Lock()
		h.deleteErr = err.Error()
		h.mu.Unlock()
		h.update(func(hd *Header) {
			hd.ConfirmingDelete = false
			hd.LastError = err.Error()
		})
		return fmt.Errorf("delete mission %s: %w", id, err)
	}

	h.logger.Info("Mission deleted", "missionId", id)
	h.update(func(hd *Header) { hd.ConfirmingDelete = false })
	if h.bus != nil {
		h.bus.MissionDeleted.Publish(ctx, signal.MissionDeleted{MissionID: id})
	}
	h.Close()
	return nil
}

func (h *Host) clearDeleteErr() {
	h.mu.Lock()
	h.deleteErr = ""
	h.mu.Unlock()
}

// onMissionDeleted closes the host when another view deletes the open mission.
func (h *Host) onMissionDeleted(_ context.Context, ev signal.MissionDeleted) {
	if !ev.Remote {
		return
	}
	h.mu.Lock()
	open := h.missionID != "" && h.missionID == ev.MissionID
	h.mu.Unlock()
	if open {
		h.logger.Warn("Open mission was deleted elsewhere", "missionId", ev.MissionID)
		h.Close()
	}
}

// Open mounts the composer and returns the field to focus and how long to
// wait before focusing it: the first invalid field, or the name field.
func (h *Host) Open() (core.FieldID, time.Duration) {
	h.composer.Mount()
	st := h.composer.Status()
	field := core.FieldName
	if !st.Verdict.OverviewComplete {
		field = st.Verdict.FirstInvalidField
	}
	return field, h.focusDelay
}

// Focus moves focus to field once the open delay has passed.
func (h *Host) Focus(field core.FieldID) {
	if h.Closed() {
		return
	}
	h.composer.Navigator().FocusField(field)
}

// Close unmounts the composer and releases subscriptions. It is idempotent.
func (h *Host) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	unsubs := h.unsubs
	h.unsubs = nil
	fn := h.onClose
	h.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	h.composer.Unmount()
	if h.current != nil {
		h.current.Clear()
	}
	if fn != nil {
		fn()
	}
}
