package composer

import (
	"sort"
	"strings"

	"github.com/aydocorp/opscomposer/internal/selection"
	"github.com/aydocorp/opscomposer/pkg/core"
)

// VesselRow is one candidate in the picker. Added rows are already in the
// mission and cannot be checked.
type VesselRow struct {
	Vessel  core.Vessel
	Added   bool
	Checked bool
}

// VesselPicker stages a batch of compendium vessels before committing them
// to the mission in one store mutation.
type VesselPicker struct {
	store        *selection.Store
	candidates   []core.Vessel
	checked      map[string]bool
	manufacturer string
	query        string
}

// NewVesselPicker creates a picker over candidates committing into store.
func NewVesselPicker(candidates []core.Vessel, store *selection.Store) *VesselPicker {
	return &VesselPicker{
		store:      store,
		candidates: candidates,
		checked:    make(map[string]bool),
	}
}

// SetManufacturer filters by manufacturer. Empty shows all.
func (p *VesselPicker) SetManufacturer(m string) {
	p.manufacturer = strings.TrimSpace(m)
}

// SetQuery filters by a case-insensitive name substring.
func (p *VesselPicker) SetQuery(q string) {
	p.query = strings.ToLower(strings.TrimSpace(q))
}

// Manufacturers lists the distinct candidate manufacturers, sorted.
func (p *VesselPicker) Manufacturers() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range p.candidates {
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

func (p *VesselPicker) inMission() map[string]bool {
	added := make(map[string]bool)
	for _, v := range p.store.Snapshot().Vessels {
		added[v.VesselID] = true
	}
	return added
}

func (p *VesselPicker) matches(v core.Vessel) bool {
	if p.manufacturer != "" && !strings.EqualFold(v.Manufacturer, p.manufacturer) {
		return false
	}
	return p.query == "" || strings.Contains(strings.ToLower(v.Name), p.query)
}

// Rows returns the filtered candidates in compendium order.
func (p *VesselPicker) Rows() []VesselRow {
	added := p.inMission()
	var rows []VesselRow
	for _, v := range p.candidates {
		if !p.matches(v) {
			continue
		}
		rows = append(rows, VesselRow{
			Vessel:  v,
			Added:   added[v.VesselID],
			Checked: p.checked[v.VesselID],
		})
	}
	return rows
}

// Check stages a candidate. It reports false for unknown or already added vessels.
func (p *VesselPicker) Check(vesselID string) bool {
	if p.inMission()[vesselID] || p.candidate(vesselID) < 0 {
		return false
	}
	p.checked[vesselID] = true
	return true
}

// Uncheck unstages a candidate.
func (p *VesselPicker) Uncheck(vesselID string) {
	delete(p.checked, vesselID)
}

// Toggle flips a candidate and reports whether it is now checked.
func (p *VesselPicker) Toggle(vesselID string) bool {
	if p.checked[vesselID] {
		p.Uncheck(vesselID)
		return false
	}
	return p.Check(vesselID)
}

// Checked returns the staged vessel ids in compendium order.
func (p *VesselPicker) Checked() []string {
	var ids []string
	for _, v := range p.candidates {
		if p.checked[v.VesselID] {
			ids = append(ids, v.VesselID)
		}
	}
	return ids
}

// Commit adds every staged vessel in one batch and clears the selection.
// It returns the ids that were added.
func (p *VesselPicker) Commit() []string {
	var batch []core.Vessel
	for _, v := range p.candidates {
		if p.checked[v.VesselID] {
			batch = append(batch, v)
		}
	}
	p.checked = make(map[string]bool)
	if len(batch) == 0 {
		return nil
	}
	return p.store.AddVessels(batch)
}

func (p *VesselPicker) candidate(id string) int {
	for i, v := range p.candidates {
		if v.VesselID == id {
			return i
		}
	}
	return -1
}
