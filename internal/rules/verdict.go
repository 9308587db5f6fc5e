package rules

import (
	"fmt"

	"github.com/aydocorp/opscomposer/pkg/core"
)

// Badges carries the per-section error counts shown on stage headers.
// Personnel is always zero under the current rule set.
type Badges struct {
	Overview  int `json:"overviewErrors"`
	Personnel int `json:"personnelErrors"`
	Vessels   int `json:"vesselsErrors"`
}

// Verdict bundles everything the UI needs to say whether and why a save is blocked.
type Verdict struct {
	CanSave           bool           `json:"canSave"`
	OverviewComplete  bool           `json:"overviewComplete"`
	VesselsValid      bool           `json:"vesselsValid"`
	MissingFields     []core.FieldID `json:"missingFields,omitempty"`
	FirstInvalidField core.FieldID   `json:"firstInvalidField,omitempty"`
	OverCapacity      []Occupancy    `json:"overCapacity,omitempty"`
	Badges            Badges         `json:"badges"`
}

// Evaluate computes the full verdict for d.
func Evaluate(d core.MissionDraft) Verdict {
	missing := MissingFields(d)
	over := OverCapacity(d)

	v := Verdict{
		OverviewComplete: len(missing) == 0,
		VesselsValid:     len(over) == 0,
		MissingFields:    missing,
		OverCapacity:     over,
		Badges: Badges{
			Overview: len(missing),
			Vessels:  len(over),
		},
	}
	v.CanSave = v.OverviewComplete && v.VesselsValid
	if len(missing) > 0 {
		v.FirstInvalidField = missing[0]
	}
	return v
}

// Reasons renders the verdict as short human readable lines, empty when savable.
func (v Verdict) Reasons() []string {
	var out []string
	for _, f := range v.MissingFields {
		out = append(out, FieldLabel(f)+" is required")
	}
	for _, o := range v.OverCapacity {
		name := o.VesselName
		if name == "" {
			name = o.VesselID
		}
		out = append(out, fmt.Sprintf("%s is over capacity (%d/%d)", name, o.Count, o.Capacity))
	}
	return out
}

// FieldLabel returns the display label for an overview field.
func FieldLabel(f core.FieldID) string {
	switch f {
	case core.FieldName:
		return "Mission name"
	case core.FieldType:
		return "Mission type"
	case core.FieldStatus:
		return "Status"
	case core.FieldScheduledDateTime:
		return "Scheduled time"
	case core.FieldLocation:
		return "Location"
	case core.FieldBriefSummary:
		return "Brief summary"
	}
	return string(f)
}
