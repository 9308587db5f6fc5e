// Package tui is the terminal front end for the composer: a sticky header
// with the save and delete actions above the four collapsible stages.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aydocorp/opscomposer/internal/composer"
	"github.com/aydocorp/opscomposer/internal/host"
	"github.com/aydocorp/opscomposer/internal/stage"
	"github.com/aydocorp/opscomposer/pkg/core"
)

// Roles given to assignments made from the keyboard.
const (
	DefaultRole       = "Crew"
	GroundSupportRole = "Ground Support"
)

// overviewFields is the row order of the Overview stage. One extra row
// after them edits the diagram links.
var overviewFields = []core.FieldID{
	core.FieldName,
	core.FieldType,
	core.FieldStatus,
	core.FieldScheduledDateTime,
	core.FieldLocation,
	core.FieldBriefSummary,
}

// pane selects which half of the Personnel and Vessels stages has the cursor.
type pane int

const (
	paneList   pane = iota // directory or compendium list
	paneRoster             // mission roster
)

type refDataLoadedMsg struct {
	result composer.LoadResult
}

type focusMsg struct {
	field core.FieldID
}

type saveDoneMsg struct {
	published bool
}

type deleteDoneMsg struct {
	err error
}

// HostClosedMsg tells the app the host closed underneath it, e.g. after the
// open mission was deleted from another session.
type HostClosedMsg struct{}

type personItem struct {
	person core.Person
}

func (i personItem) Title() string { return i.person.DisplayName }
func (i personItem) Description() string {
	return fmt.Sprintf("%d ship(s) on file", len(i.person.OwnedVessels))
}
func (i personItem) FilterValue() string { return i.person.DisplayName }

type vesselItem struct {
	row composer.VesselRow
}

func (i vesselItem) Title() string {
	mark := "[ ]"
	switch {
	case i.row.Added:
		mark = "[+]"
	case i.row.Checked:
		mark = "[x]"
	}
	return mark + " " + i.row.Vessel.Name
}

func (i vesselItem) Description() string {
	return i.row.Vessel.Manufacturer + " · " + capacityLabel(i.row.Vessel)
}

func (i vesselItem) FilterValue() string { return i.row.Vessel.Name }

// AppOption customizes App construction.
type AppOption func(*App)

// WithContext sets the context used for saves, deletes and loading.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) AppOption {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// focusRequest is recorded by the stage.Focuser methods and applied on the
// next Update, since saves run off the UI goroutine.
type focusRequest struct {
	stage stage.Stage
	field core.FieldID
	set   bool
}

// App is the composer screen.
type App struct {
	host     *host.Host
	composer *composer.Composer
	ctx      context.Context
	logger   *slog.Logger

	width  int
	height int

	inputs       map[core.FieldID]*textinput.Model
	links        textinput.Model
	row          int
	pane         pane
	rosterCursor int

	people  list.Model
	vessels list.Model
	picker  *composer.VesselPicker
	help    help.Model

	manufacturer string

	loading  bool
	notice   string
	quitting bool

	focusMu sync.Mutex
	pending focusRequest
}

// NewApp builds the screen around h and becomes its navigator's focus target.
func NewApp(h *host.Host, opts ...AppOption) *App {
	a := &App{
		host:     h,
		composer: h.Composer(),
		ctx:      context.Background(),
		logger:   slog.Default(),
		inputs:   make(map[core.FieldID]*textinput.Model),
		loading:  true,
		help:     help.New(),
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, f := range overviewFields {
		if f == core.FieldStatus {
			continue
		}
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholder(f)
		in.CharLimit = 256
		in.Cursor.SetMode(cursor.CursorStatic)
		a.inputs[f] = &in
	}
	a.links = textinput.New()
	a.links.Prompt = ""
	a.links.Placeholder = "comma separated URLs"
	a.links.Cursor.SetMode(cursor.CursorStatic)

	a.people = newList("Directory")
	a.vessels = newList("Compendium")
	a.picker = a.composer.VesselPicker()

	a.syncInputs()
	a.refreshLists()
	a.composer.Navigator().SetFocuser(a)
	return a
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 40, 14)
	l.Title = title
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.DisableQuitKeybindings()
	return l
}

func placeholder(f core.FieldID) string {
	switch f {
	case core.FieldScheduledDateTime:
		return "YYYY-MM-DDTHH:MM"
	case core.FieldBriefSummary:
		return "optional"
	case core.FieldLocation:
		return "optional"
	}
	return ""
}

// FocusStage implements stage.Focuser.
func (a *App) FocusStage(s stage.Stage) {
	a.focusMu.Lock()
	a.pending = focusRequest{stage: s, set: true}
	a.focusMu.Unlock()
}

// FocusField implements stage.Focuser.
func (a *App) FocusField(f core.FieldID) {
	a.focusMu.Lock()
	a.pending = focusRequest{stage: stage.Overview, field: f, set: true}
	a.focusMu.Unlock()
}

func (a *App) applyFocus() {
	a.focusMu.Lock()
	req := a.pending
	a.pending = focusRequest{}
	a.focusMu.Unlock()
	if !req.set {
		return
	}

	a.pane = paneList
	a.rosterCursor = 0
	if req.stage != stage.Overview {
		a.blurInputs()
		return
	}
	if req.field != "" {
		for i, f := range overviewFields {
			if f == req.field {
				a.row = i
			}
		}
	}
	a.focusRow()
}

// Init opens the host, starts loading reference data and schedules the
// initial focus.
func (a *App) Init() tea.Cmd {
	field, delay := a.host.Open()
	return tea.Batch(a.loadReferenceData(), focusAfter(field, delay))
}

func focusAfter(field core.FieldID, delay time.Duration) tea.Cmd {
	if delay <= 0 {
		return func() tea.Msg { return focusMsg{field: field} }
	}
	return tea.Tick(delay, func(time.Time) tea.Msg { return focusMsg{field: field} })
}

func (a *App) loadReferenceData() tea.Cmd {
	c, ctx := a.composer, a.ctx
	return func() tea.Msg {
		return refDataLoadedMsg{result: c.LoadReferenceData(ctx)}
	}
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := a.update(msg)
	a.applyFocus()
	if a.host.Closed() && !a.quitting {
		a.quitting = true
		return model, tea.Quit
	}
	return model, cmd
}

func (a *App) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		w := max(20, msg.Width/2-4)
		h := max(6, msg.Height-16)
		a.people.SetSize(w, h)
		a.vessels.SetSize(w, h)
		a.help.Width = msg.Width
		return a, nil

	case refDataLoadedMsg:
		a.loading = false
		if msg.result.Discarded {
			return a, nil
		}
		var failed []string
		if msg.result.UsersErr != nil {
			failed = append(failed, "user directory")
		}
		if msg.result.CatalogErr != nil {
			failed = append(failed, "vessel compendium")
		}
		if len(failed) > 0 {
			a.notice = "Could not load " + strings.Join(failed, " and ")
		}
		a.picker = a.composer.VesselPicker()
		a.manufacturer = ""
		return a, a.refreshLists()

	case focusMsg:
		a.host.Focus(msg.field)
		return a, nil

	case saveDoneMsg:
		a.syncInputs()
		hdr := a.host.Header()
		switch {
		case hdr.LastError != "":
			a.notice = ""
		case msg.published:
			a.notice = "Mission saved"
		default:
			a.notice = "Nothing is listening for saves"
		}
		return a, a.refreshLists()

	case deleteDoneMsg:
		if msg.err != nil {
			a.logger.Error("Delete failed", "error", msg.err)
			return a, nil
		}
		a.quitting = true
		return a, tea.Quit

	case HostClosedMsg:
		a.quitting = true
		return a, tea.Quit

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a.quit()
	}

	if a.host.Header().ConfirmingDelete {
		switch {
		case key.Matches(msg, keys.ConfirmDelete):
			return a, a.confirmDelete()
		case key.Matches(msg, keys.CancelDelete):
			a.host.CancelDelete()
		}
		return a, nil
	}

	if l := a.activeList(); l != nil && (l.SettingFilter() || (l.FilterState() == list.FilterApplied && msg.String() == "esc")) {
		var cmd tea.Cmd
		*l, cmd = l.Update(msg)
		return a, cmd
	}

	nav := a.composer.Navigator()
	switch {
	case key.Matches(msg, keys.Quit):
		return a.quit()
	case key.Matches(msg, keys.Save):
		return a, a.save()
	case key.Matches(msg, keys.Delete):
		if !a.host.RequestDelete() {
			a.notice = "Only saved missions can be deleted"
		}
		return a, nil
	case key.Matches(msg, keys.NextStage):
		a.step(1)
		return a, nil
	case key.Matches(msg, keys.PrevStage):
		a.step(-1)
		return a, nil
	case key.Matches(msg, keys.CloseStage):
		nav.Toggle(nav.Current())
		a.blurInputs()
		return a, nil
	}

	switch nav.Current() {
	case stage.Overview:
		return a.updateOverview(msg)
	case stage.Personnel:
		return a.updatePersonnel(msg)
	case stage.Vessels:
		return a.updateVessels(msg)
	}
	return a, nil
}

func (a *App) quit() (tea.Model, tea.Cmd) {
	a.host.Close()
	a.quitting = true
	return a, tea.Quit
}

// step moves to the next or previous stage, wrapping around.
func (a *App) step(delta int) {
	nav := a.composer.Navigator()
	cur := nav.Current()
	next := stage.Overview
	if cur == stage.Closed {
		if delta < 0 {
			next = stage.Review
		}
	} else {
		n := len(stage.All)
		next = stage.All[((int(cur)-1+delta)%n+n)%n]
	}
	nav.GoToSection(next)
}

func (a *App) activeList() *list.Model {
	if a.pane != paneList {
		return nil
	}
	switch a.composer.Navigator().Current() {
	case stage.Personnel:
		return &a.people
	case stage.Vessels:
		return &a.vessels
	}
	return nil
}

func (a *App) save() tea.Cmd {
	if !a.composer.Status().Valid {
		a.host.Save(a.ctx)
		a.notice = "Mission cannot be saved yet"
		return nil
	}
	h, ctx := a.host, a.ctx
	a.notice = "Saving..."
	return func() tea.Msg {
		return saveDoneMsg{published: h.Save(ctx)}
	}
}

func (a *App) confirmDelete() tea.Cmd {
	h, ctx := a.host, a.ctx
	return func() tea.Msg {
		return deleteDoneMsg{err: h.ConfirmDelete(ctx)}
	}
}

func (a *App) rowCount() int {
	return len(overviewFields) + 1
}

func (a *App) currentField() (core.FieldID, bool) {
	if a.row < len(overviewFields) {
		return overviewFields[a.row], true
	}
	return "", false
}

func (a *App) blurInputs() {
	for _, in := range a.inputs {
		in.Blur()
	}
	a.links.Blur()
}

func (a *App) focusRow() {
	a.blurInputs()
	f, ok := a.currentField()
	if !ok {
		a.links.Focus()
		return
	}
	if in := a.inputs[f]; in != nil {
		in.Focus()
	}
}

// syncInputs copies the draft into the text inputs.
func (a *App) syncInputs() {
	d := a.composer.Store().Snapshot()
	for f, in := range a.inputs {
		v, _ := d.Overview.Get(f)
		in.SetValue(v)
	}
	a.links.SetValue(strings.Join(d.DiagramLinks, ", "))
}

func (a *App) updateOverview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		a.row = (a.row - 1 + a.rowCount()) % a.rowCount()
		a.focusRow()
		return a, nil
	case key.Matches(msg, keys.Down), msg.String() == "enter":
		a.row = (a.row + 1) % a.rowCount()
		a.focusRow()
		return a, nil
	}

	store := a.composer.Store()
	f, ok := a.currentField()
	if !ok {
		before := a.links.Value()
		var cmd tea.Cmd
		a.links, cmd = a.links.Update(msg)
		if a.links.Value() != before {
			store.SetDiagramLinks(splitLinks(a.links.Value()))
		}
		return a, cmd
	}

	if f == core.FieldStatus {
		switch {
		case key.Matches(msg, keys.Left):
			store.UpdateOverviewField(f, cycleStatus(store.Snapshot().Overview.Status, -1))
		case key.Matches(msg, keys.Right):
			store.UpdateOverviewField(f, cycleStatus(store.Snapshot().Overview.Status, 1))
		}
		return a, nil
	}

	in := a.inputs[f]
	before := in.Value()
	next, cmd := in.Update(msg)
	*in = next
	if in.Value() != before {
		store.UpdateOverviewField(f, in.Value())
	}
	return a, cmd
}

func splitLinks(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func cycleStatus(current string, delta int) string {
	n := len(core.MissionStatuses)
	idx := 0
	for i, s := range core.MissionStatuses {
		if s == current {
			idx = i
		}
	}
	return core.MissionStatuses[((idx+delta)%n+n)%n]
}

func (a *App) updatePersonnel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
		a.togglePane()
		return a, nil
	}

	if a.pane == paneList {
		if key.Matches(msg, keys.Select) {
			if it, ok := a.people.SelectedItem().(personItem); ok {
				a.composer.AddPersonByID(it.person.ID)
				return a, a.refreshLists()
			}
			return a, nil
		}
		var cmd tea.Cmd
		a.people, cmd = a.people.Update(msg)
		return a, cmd
	}

	d := a.composer.Store().Snapshot()
	if len(d.Persons) == 0 {
		return a, nil
	}
	a.rosterCursor = clamp(a.rosterCursor, len(d.Persons))
	p := d.Persons[a.rosterCursor]
	store := a.composer.Store()

	switch {
	case key.Matches(msg, keys.Up):
		a.rosterCursor = clamp(a.rosterCursor-1, len(d.Persons))
	case key.Matches(msg, keys.Down):
		a.rosterCursor = clamp(a.rosterCursor+1, len(d.Persons))
	case key.Matches(msg, keys.Remove):
		store.RemovePerson(p.ID)
		a.rosterCursor = clamp(a.rosterCursor, len(d.Persons)-1)
		return a, a.refreshLists()
	case key.Matches(msg, keys.Assign):
		next := nextVessel(d, assignmentOf(d, p.ID))
		if next == "" {
			store.AssignCrew(p.ID, "", "")
		} else {
			store.AssignCrew(p.ID, next, DefaultRole)
		}
	case key.Matches(msg, keys.Ground):
		if assignmentOf(d, p.ID) == core.GroundSupportVesselID {
			store.AssignCrew(p.ID, "", "")
		} else {
			store.AssignCrew(p.ID, core.GroundSupportVesselID, GroundSupportRole)
		}
	case key.Matches(msg, keys.Owned):
		added := 0
		for _, v := range p.OwnedVessels {
			if a.composer.AddOwnedVessel(p.ID, v.VesselID) {
				added++
			}
		}
		a.notice = fmt.Sprintf("Added %d ship(s) from %s", added, p.DisplayName)
		return a, a.refreshLists()
	}
	return a, nil
}

// assignmentOf returns the vessel id personID is assigned to, the ground
// support sentinel, or "" when unassigned.
func assignmentOf(d core.MissionDraft, personID string) string {
	for _, c := range d.Crew {
		if c.PersonID != personID {
			continue
		}
		if c.IsGroundSupport {
			return core.GroundSupportVesselID
		}
		return c.VesselID
	}
	return ""
}

// nextVessel cycles through the roster vessels and then back to unassigned.
func nextVessel(d core.MissionDraft, current string) string {
	if len(d.Vessels) == 0 {
		return ""
	}
	for i, v := range d.Vessels {
		if v.VesselID != current {
			continue
		}
		if i+1 < len(d.Vessels) {
			return d.Vessels[i+1].VesselID
		}
		return ""
	}
	return d.Vessels[0].VesselID
}

func (a *App) updateVessels(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
		a.togglePane()
		return a, nil
	}

	if a.pane == paneList {
		switch {
		case key.Matches(msg, keys.Check):
			if it, ok := a.vessels.SelectedItem().(vesselItem); ok {
				if !a.picker.Toggle(it.row.Vessel.VesselID) && it.row.Added {
					a.notice = it.row.Vessel.Name + " is already in the mission"
				}
				return a, a.refreshLists()
			}
			return a, nil
		case key.Matches(msg, keys.Select):
			ids := a.picker.Commit()
			a.notice = fmt.Sprintf("Added %d vessel(s)", len(ids))
			return a, a.refreshLists()
		case key.Matches(msg, keys.Manufacturer):
			a.manufacturer = nextManufacturer(a.picker.Manufacturers(), a.manufacturer)
			a.picker.SetManufacturer(a.manufacturer)
			return a, a.refreshLists()
		}
		var cmd tea.Cmd
		a.vessels, cmd = a.vessels.Update(msg)
		return a, cmd
	}

	d := a.composer.Store().Snapshot()
	if len(d.Vessels) == 0 {
		return a, nil
	}
	a.rosterCursor = clamp(a.rosterCursor, len(d.Vessels))
	switch {
	case key.Matches(msg, keys.Up):
		a.rosterCursor = clamp(a.rosterCursor-1, len(d.Vessels))
	case key.Matches(msg, keys.Down):
		a.rosterCursor = clamp(a.rosterCursor+1, len(d.Vessels))
	case key.Matches(msg, keys.Remove):
		a.composer.Store().RemoveVessel(d.Vessels[a.rosterCursor].VesselID)
		a.rosterCursor = clamp(a.rosterCursor, len(d.Vessels)-1)
		return a, a.refreshLists()
	}
	return a, nil
}

func nextManufacturer(all []string, current string) string {
	if current == "" {
		if len(all) == 0 {
			return ""
		}
		return all[0]
	}
	for i, m := range all {
		if m == current && i+1 < len(all) {
			return all[i+1]
		}
	}
	return ""
}

func (a *App) togglePane() {
	if a.pane == paneList {
		a.pane = paneRoster
	} else {
		a.pane = paneList
	}
	a.rosterCursor = 0
}

// refreshLists rebuilds the directory and compendium lists from the draft.
func (a *App) refreshLists() tea.Cmd {
	people := a.composer.AvailablePeople("")
	items := make([]list.Item, 0, len(people))
	for _, p := range people {
		items = append(items, personItem{person: p})
	}
	cmds := []tea.Cmd{a.people.SetItems(items)}

	if a.picker != nil {
		rows := a.picker.Rows()
		vitems := make([]list.Item, 0, len(rows))
		for _, r := range rows {
			vitems = append(vitems, vesselItem{row: r})
		}
		cmds = append(cmds, a.vessels.SetItems(vitems))
	}
	return tea.Batch(cmds...)
}

func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func capacityLabel(v core.Vessel) string {
	if c, ok := v.Capacity(); ok {
		return fmt.Sprintf("crew %d", c)
	}
	return "crew unlimited"
}
