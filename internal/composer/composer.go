// Package composer orchestrates one mission-in-progress: it owns the selection
// store and stage navigator, reports live status to its host, listens for save
// requests and runs the single commit path to the persistence API.
package composer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aydocorp/opscomposer/internal/mission"
	"github.com/aydocorp/opscomposer/internal/refdata"
	"github.com/aydocorp/opscomposer/internal/rules"
	"github.com/aydocorp/opscomposer/internal/selection"
	"github.com/aydocorp/opscomposer/internal/signal"
	"github.com/aydocorp/opscomposer/internal/stage"
	"github.com/aydocorp/opscomposer/pkg/core"
)

// UntitledMission names a new mission in logs until it has a name.
const UntitledMission = "Untitled mission"

// Persister stores missions. *api.Client satisfies it.
type Persister interface {
	Create(ctx context.Context, in core.MissionInput) (core.Mission, error)
	Update(ctx context.Context, id string, in core.MissionInput) (core.Mission, error)
}

// Section is one collapsible stage as the shell renders it.
type Section struct {
	Stage  stage.Stage
	Title  string
	Open   bool
	Errors int
}

// Status is what the host container is told after every relevant change.
type Status struct {
	Valid         bool
	Editing       bool
	MissionID     string
	MissionStatus string
	Stage         stage.Stage
	Verdict       rules.Verdict
	Sections      []Section
	SaveError     string
}

// SaveResult describes one pass through the commit path. Saved is false when
// the verdict blocked the save.
type SaveResult struct {
	Saved   bool
	Created bool
	Mission core.Mission
	Verdict rules.Verdict
}

// Composer is the shell around one mission draft.
type Composer struct {
	store     *selection.Store
	nav       *stage.Navigator
	bus       *signal.Bus
	persister Persister
	directory refdata.Directory
	catalog   refdata.Catalog
	current   *mission.Context
	logger    *slog.Logger
	cacheSize int
	baseline  *core.Mission

	mu          sync.Mutex
	onStatus    func(Status)
	people      []core.Person
	compendium  *refdata.Compendium
	unsubscribe func()
	mounted     bool
	torn        bool
	saving      bool
	saveErr     string
}

// Option configures a Composer.
type Option func(*Composer)

// WithMission opens an existing mission for editing.
func WithMission(m core.Mission) Option {
	return func(c *Composer) {
		mc := m.Clone()
		c.baseline = &mc
	}
}

// WithReferenceSources sets where LoadReferenceData reads from.
func WithReferenceSources(dir refdata.Directory, cat refdata.Catalog) Option {
	return func(c *Composer) {
		c.directory = dir
		c.catalog = cat
	}
}

// WithStatusCallback sets the host callback.
func WithStatusCallback(fn func(Status)) Option {
	return func(c *Composer) {
		c.onStatus = fn
	}
}

// WithFocuser routes navigator focus requests to a view.
func WithFocuser(f stage.Focuser) Option {
	return func(c *Composer) {
		c.nav.SetFocuser(f)
	}
}

// WithMissionContext keeps ctx pointed at the open mission for log enrichment.
func WithMissionContext(ctx *mission.Context) Option {
	return func(c *Composer) {
		c.current = ctx
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLookupCacheSize sizes the compendium lookup cache.
func WithLookupCacheSize(n int) Option {
	return func(c *Composer) {
		c.cacheSize = n
	}
}

// New creates a composer. Without WithMission it starts a new mission.
func New(p Persister, bus *signal.Bus, opts ...Option) *Composer {
	c := &Composer{
		bus:        bus,
		persister:  p,
		directory:  refdata.StaticDirectory(nil),
		catalog:    refdata.StaticCatalog(nil),
		logger:     slog.Default(),
		cacheSize:  refdata.DefaultLookupCacheSize,
		compendium: refdata.EmptyCompendium(),
		people:     []core.Person{},
		nav:        stage.New(false, nil),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseline != nil {
		c.store = selection.Hydrate(*c.baseline)
		c.nav.Open(stage.Review)
	} else {
		c.store = selection.New()
	}

	c.store.OnChange(func(d core.MissionDraft) {
		c.track(d)
		c.emit()
	})
	c.nav.OnChange(func(stage.Stage) { c.emit() })
	c.track(c.store.Snapshot())
	return c
}

// Store exposes the selection store for mutations.
func (c *Composer) Store() *selection.Store {
	return c.store
}

// Navigator exposes the stage navigator.
func (c *Composer) Navigator() *stage.Navigator {
	return c.nav
}

// Mount subscribes to save requests and reports the initial status.
// Mounting twice keeps a single subscription.
func (c *Composer) Mount() {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.torn = false
	if c.bus != nil {
		c.unsubscribe = c.bus.SaveRequested.Subscribe(func(ctx context.Context, req signal.SaveRequest) {
			c.logger.Debug("Save requested", "source", req.Source)
			if _, err := c.Submit(ctx); err != nil {
				c.logger.Error("Save request failed", "source", req.Source, "error", err)
			}
		})
	}
	c.mu.Unlock()
	c.emit()
}

// Unmount drops the save subscription. Reference data arriving afterwards is ignored.
func (c *Composer) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.mounted = false
	c.torn = true
}

// Mounted reports whether the save subscription is active.
func (c *Composer) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted
}

// Sections returns the four stages with their open flag and error badge.
func (c *Composer) Sections() []Section {
	return sections(rules.Evaluate(c.store.Snapshot()), c.nav.Current())
}

func sections(v rules.Verdict, open stage.Stage) []Section {
	out := make([]Section, 0, len(stage.All))
	for _, s := range stage.All {
		sec := Section{Stage: s, Title: s.String(), Open: s == open}
		switch s {
		case stage.Overview:
			sec.Errors = v.Badges.Overview
		case stage.Personnel:
			sec.Errors = v.Badges.Personnel
		case stage.Vessels:
			sec.Errors = v.Badges.Vessels
		}
		out = append(out, sec)
	}
	return out
}

// Status computes the current status from the freshest snapshot.
func (c *Composer) Status() Status {
	d := c.store.Snapshot()
	v := rules.Evaluate(d)
	current := c.nav.Current()
	c.mu.Lock()
	saveErr := c.saveErr
	c.mu.Unlock()
	return Status{
		Valid:         v.CanSave,
		Editing:       d.Editing(),
		MissionID:     d.ID,
		MissionStatus: d.Overview.Status,
		Stage:         current,
		Verdict:       v,
		Sections:      sections(v, current),
		SaveError:     saveErr,
	}
}

func (c *Composer) emit() {
	c.mu.Lock()
	fn := c.onStatus
	c.mu.Unlock()
	if fn != nil {
		fn(c.Status())
	}
}

// SetStatusCallback replaces the host callback.
func (c *Composer) SetStatusCallback(fn func(Status)) {
	c.mu.Lock()
	c.onStatus = fn
	c.mu.Unlock()
}

func (c *Composer) track(d core.MissionDraft) {
	if c.current == nil {
		return
	}
	name := strings.TrimSpace(d.Overview.Name)
	if name == "" {
		name = UntitledMission
	}
	c.current.Set(d.ID, name)
}

// BuildInput maps a draft to the persistence payload. Blank diagram links are dropped.
func BuildInput(d core.MissionDraft) core.MissionInput {
	links := make([]string, 0, len(d.DiagramLinks))
	for _, l := range d.DiagramLinks {
		if l = strings.TrimSpace(l); l != "" {
			links = append(links, l)
		}
	}
	vessels := make([]core.SelectedVessel, len(d.Vessels))
	for i, v := range d.Vessels {
		vessels[i] = v
		vessels[i].Vessel = v.Vessel.Clone()
	}
	return core.MissionInput{
		Name:              d.Overview.Name,
		Type:              d.Overview.Type,
		Status:            d.Overview.Status,
		ScheduledDateTime: d.Overview.ScheduledDateTime,
		Location:          d.Overview.Location,
		BriefSummary:      d.Overview.BriefSummary,
		DiagramLinks:      links,
		Participants:      rules.SerializeParticipants(d),
		Vessels:           vessels,
	}
}

// Submit is the commit path. A blocked verdict redirects the navigator and
// returns an unsaved result without error. On success MissionSaved is
// published and the saved mission becomes the new baseline. Edits made while
// the request was in flight are kept and only the mission id is adopted.
// On failure the draft is left untouched and the error returned.
func (c *Composer) Submit(ctx context.Context) (SaveResult, error) {
	d, rev := c.store.SnapshotAt()
	v := rules.Evaluate(d)
	if !v.CanSave {
		c.logger.Debug("Save blocked", "reasons", v.Reasons())
		c.nav.RejectSave(v)
		return SaveResult{Verdict: v}, nil
	}
	if c.persister == nil {
		return SaveResult{Verdict: v}, fmt.Errorf("no persister configured")
	}

	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return SaveResult{Verdict: v}, fmt.Errorf("save already in progress")
	}
	c.saving = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.saving = false
		c.mu.Unlock()
	}()

	in := BuildInput(d)
	var (
		saved   core.Mission
		err     error
		created = !d.Editing()
	)
	if created {
		saved, err = c.persister.Create(ctx, in)
	} else {
		saved, err = c.persister.Update(ctx, d.ID, in)
	}
	if err != nil {
		c.logger.Error("Failed to save mission", "missionId", d.ID, "error", err)
		c.setSaveErr(err.Error())
		return SaveResult{Verdict: v}, fmt.Errorf("save mission: %w", err)
	}
	c.setSaveErr("")

	if !c.store.Commit(saved, rev) {
		c.logger.Debug("Draft changed while saving, keeping local edits", "missionId", saved.ID)
	}
	c.attachOwnedVessels()
	c.logger.Info("Mission saved", "missionId", saved.ID, "created", created)
	if c.bus != nil {
		c.bus.MissionSaved.Publish(ctx, signal.MissionSaved{Mission: saved, Created: created})
	}
	return SaveResult{Saved: true, Created: created, Mission: saved, Verdict: v}, nil
}

func (c *Composer) setSaveErr(msg string) {
	c.mu.Lock()
	changed := c.saveErr != msg
	c.saveErr = msg
	c.mu.Unlock()
	if changed {
		c.emit()
	}
}

// LoadResult reports what LoadReferenceData obtained.
type LoadResult struct {
	People     int
	Vessels    int
	UsersErr   error
	CatalogErr error
	Discarded  bool
}

// LoadReferenceData fetches the user directory and the compendium
// concurrently. A failed source leaves its list empty. Results that arrive
// after Unmount are discarded.
func (c *Composer) LoadReferenceData(ctx context.Context) LoadResult {
	var (
		wg      sync.WaitGroup
		users   []core.DirectoryUser
		entries []refdata.Entry
		res     LoadResult
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		users, res.UsersErr = c.directory.Users(ctx)
	}()
	go func() {
		defer wg.Done()
		entries, res.CatalogErr = c.catalog.Entries(ctx)
	}()
	wg.Wait()

	if res.UsersErr != nil {
		c.logger.Error("Failed to load user directory", "error", res.UsersErr)
		users = nil
	}
	if res.CatalogErr != nil {
		c.logger.Error("Failed to load vessel compendium", "error", res.CatalogErr)
		entries = nil
	}

	comp, err := refdata.NewCompendium(entries, c.cacheSize)
	if err != nil {
		c.logger.Error("Failed to index vessel compendium", "error", err)
		res.CatalogErr = err
		comp = refdata.EmptyCompendium()
	}
	people := refdata.NewNormalizer(comp).People(users)

	c.mu.Lock()
	if c.torn {
		c.mu.Unlock()
		res.Discarded = true
		return res
	}
	c.people = people
	c.compendium = comp
	c.mu.Unlock()

	c.attachOwnedVessels()
	res.People = len(people)
	res.Vessels = comp.Len()
	c.logger.Debug("Reference data loaded", "people", res.People, "vessels", res.Vessels)
	return res
}

// attachOwnedVessels gives rostered people their own ships from the directory.
func (c *Composer) attachOwnedVessels() {
	owned := make(map[string][]core.Vessel)
	for _, p := range c.People() {
		if len(p.OwnedVessels) > 0 {
			owned[p.ID] = p.OwnedVessels
		}
	}
	if len(owned) > 0 {
		c.store.AttachOwnedVessels(owned)
	}
}

// People returns the normalized directory.
func (c *Composer) People() []core.Person {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Person(nil), c.people...)
}

// Compendium returns the loaded vessel compendium.
func (c *Composer) Compendium() *refdata.Compendium {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compendium
}

// AvailablePeople lists directory people not yet on the roster whose display
// name contains query, case-insensitively.
func (c *Composer) AvailablePeople(query string) []core.Person {
	selected := make(map[string]struct{})
	for _, p := range c.store.Snapshot().Persons {
		selected[p.ID] = struct{}{}
	}
	q := strings.ToLower(strings.TrimSpace(query))

	var out []core.Person
	for _, p := range c.People() {
		if _, ok := selected[p.ID]; ok {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.DisplayName), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// AddPersonByID adds a directory person to the roster.
func (c *Composer) AddPersonByID(id string) bool {
	for _, p := range c.People() {
		if p.ID == id {
			return c.store.AddPerson(p)
		}
	}
	return false
}

// AddOwnedVessel adds one of a rostered person's own vessels, tagged with them.
func (c *Composer) AddOwnedVessel(personID, vesselID string) bool {
	for _, p := range c.store.Snapshot().Persons {
		if p.ID != personID {
			continue
		}
		for _, v := range p.OwnedVessels {
			if v.VesselID == vesselID {
				_, added := c.store.AddVessel(v, &p)
				return added
			}
		}
	}
	return false
}

// VesselPicker opens a staged multi-select over the compendium.
func (c *Composer) VesselPicker() *VesselPicker {
	return NewVesselPicker(c.Compendium().Vessels(), c.store)
}
