package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aydocorp/opscomposer/internal/composer"
	"github.com/aydocorp/opscomposer/internal/host"
	"github.com/aydocorp/opscomposer/internal/rules"
	"github.com/aydocorp/opscomposer/internal/stage"
	"github.com/aydocorp/opscomposer/pkg/core"
)

// View renders the header, the four stages and the key help.
func (a *App) View() string {
	if a.quitting {
		return ""
	}
	d := a.composer.Store().Snapshot()

	var b strings.Builder
	b.WriteString(a.renderHeader(d))
	b.WriteString("\n")
	for _, s := range a.composer.Sections() {
		b.WriteString(renderSectionTitle(s))
		b.WriteString("\n")
		if !s.Open {
			continue
		}
		var body string
		switch s.Stage {
		case stage.Overview:
			body = a.renderOverview(d)
		case stage.Personnel:
			body = a.renderPersonnel(d)
		case stage.Vessels:
			body = a.renderVessels(d)
		case stage.Review:
			body = renderReview(d)
		}
		b.WriteString(bodyStyle.Render(body))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(a.help.View(keys))
	return b.String()
}

func (a *App) renderHeader(d core.MissionDraft) string {
	hdr := a.host.Header()
	name := d.Overview.Name
	if strings.TrimSpace(name) == "" {
		name = composer.UntitledMission
	}

	chip := chipStyleBlocked
	switch {
	case hdr.Valid:
		chip = chipStyleReady
	case strings.HasSuffix(hdr.StatusChip, host.ChipOverCapacity):
		chip = chipStyleOver
	}

	lines := []string{titleStyle.Render(name) + "  " + chip.Render(hdr.StatusChip)}
	actions := "ctrl+s save"
	if !hdr.SaveEnabled {
		actions = mutedStyle.Render(actions)
	}
	if hdr.DeleteVisible {
		actions += "  ctrl+d delete"
	}
	lines = append(lines, actions)

	if hdr.ConfirmingDelete {
		lines = append(lines, confirmStyle.Render("Delete this mission? y to confirm, n to cancel"))
	}
	if hdr.LastError != "" {
		lines = append(lines, errorStyle.Render("Error: "+hdr.LastError))
	}
	switch {
	case a.loading:
		lines = append(lines, noticeStyle.Render("Loading reference data..."))
	case a.notice != "":
		lines = append(lines, noticeStyle.Render(a.notice))
	}

	width := a.width
	if width <= 0 {
		width = 100
	}
	return headerStyle.Width(max(20, width-2)).Render(strings.Join(lines, "\n"))
}

func renderSectionTitle(s composer.Section) string {
	arrow := "▸"
	style := sectionStyle
	if s.Open {
		arrow = "▾"
		style = sectionOpenStyle
	}
	out := style.Render(arrow + " " + s.Title)
	if s.Errors > 0 {
		out += " " + badgeStyle.Render(fmt.Sprintf("%d", s.Errors))
	}
	return out
}

func (a *App) renderOverview(d core.MissionDraft) string {
	missing := make(map[core.FieldID]bool)
	for _, f := range rules.MissingFields(d) {
		missing[f] = true
	}

	var lines []string
	for i, f := range overviewFields {
		var value string
		if f == core.FieldStatus {
			value = "‹ " + d.Overview.Status + " ›"
		} else {
			value = a.inputs[f].View()
		}
		line := cursor(i == a.row) + labelStyle.Render(rules.FieldLabel(f)) + value
		if missing[f] {
			line += " " + errorStyle.Render("required")
		}
		lines = append(lines, line)
	}
	lines = append(lines, cursor(a.row == len(overviewFields))+labelStyle.Render("Diagram links")+a.links.View())
	return strings.Join(lines, "\n")
}

func cursor(on bool) string {
	if on {
		return cursorStyle.Render("› ")
	}
	return "  "
}

func (a *App) renderPersonnel(d core.MissionDraft) string {
	var roster []string
	roster = append(roster, titleStyle.Render(fmt.Sprintf("Roster (%d)", len(d.Persons))))
	if len(d.Persons) == 0 {
		roster = append(roster, mutedStyle.Render("Nobody selected yet"))
	}
	for i, p := range d.Persons {
		line := cursor(a.pane == paneRoster && i == a.rosterCursor) + p.DisplayName
		line += " " + mutedStyle.Render(assignmentLabel(d, p.ID))
		roster = append(roster, line)
	}
	roster = append(roster, "", mutedStyle.Render("a vessel  g ground  o own ships  x remove"))

	return a.renderPanes(a.people.View(), strings.Join(roster, "\n"))
}

func assignmentLabel(d core.MissionDraft, personID string) string {
	for _, c := range d.Crew {
		if c.PersonID != personID {
			continue
		}
		if c.IsGroundSupport {
			return "ground support · " + c.Role
		}
		return c.VesselName + " · " + c.Role
	}
	return "unassigned"
}

func (a *App) renderVessels(d core.MissionDraft) string {
	var picker []string
	filter := a.manufacturer
	if filter == "" {
		filter = "all manufacturers"
	}
	picker = append(picker, mutedStyle.Render("m: "+filter+"  space check  enter add checked"))
	picker = append(picker, a.vessels.View())

	var roster []string
	roster = append(roster, titleStyle.Render(fmt.Sprintf("Mission vessels (%d)", len(d.Vessels))))
	if len(d.Vessels) == 0 {
		roster = append(roster, mutedStyle.Render("No vessels yet"))
	}
	for i, v := range d.Vessels {
		line := cursor(a.pane == paneRoster && i == a.rosterCursor) + v.Name
		if v.OwnerName != "" {
			line += mutedStyle.Render(" (" + v.OwnerName + ")")
		}
		line += " " + renderOccupancy(rules.OccupancyOf(d, v.VesselID))
		roster = append(roster, line)
	}
	return a.renderPanes(strings.Join(picker, "\n"), strings.Join(roster, "\n"))
}

func renderOccupancy(o rules.Occupancy) string {
	if o.Unlimited {
		return occupancyOKStyle.Render(fmt.Sprintf("%d/∞", o.Count))
	}
	label := fmt.Sprintf("%d/%d", o.Count, o.Capacity)
	if o.IsOver {
		return occupancyBadStyle.Render(label + " over capacity")
	}
	return occupancyOKStyle.Render(label)
}

func (a *App) renderPanes(left, right string) string {
	ls, rs := paneStyle, paneStyle
	if a.pane == paneList {
		ls = paneActiveStyle
	} else {
		rs = paneActiveStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, ls.Render(left), " ", rs.Render(right))
}

func renderReview(d core.MissionDraft) string {
	v := rules.Evaluate(d)
	var lines []string
	if reasons := v.Reasons(); len(reasons) > 0 {
		for _, r := range reasons {
			lines = append(lines, errorStyle.Render("• "+r))
		}
	} else {
		lines = append(lines, chipStyleReady.Render("Ready to save"))
	}

	lines = append(lines, "", titleStyle.Render("Vessels"))
	for _, sv := range d.Vessels {
		lines = append(lines, fmt.Sprintf("  %s %s", sv.Name, renderOccupancy(rules.OccupancyOf(d, sv.VesselID))))
		for _, c := range rules.CrewOf(d, sv.VesselID) {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("    %s · %s", c.PersonName, c.Role)))
		}
	}
	if ground := rules.GroundSupport(d); len(ground) > 0 {
		lines = append(lines, "", titleStyle.Render("Ground support"))
		for _, c := range ground {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %s · %s", c.PersonName, c.Role)))
		}
	}

	unassigned := 0
	for _, p := range rules.SerializeParticipants(d) {
		if len(p.Roles) == 0 {
			unassigned++
		}
	}
	lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("%d participant(s), %d unassigned", len(d.Persons), unassigned)))
	return strings.Join(lines, "\n")
}
