package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))

	headerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5B8DEF")).
			Padding(0, 1)

	chipStyleReady    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	chipStyleBlocked  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB74D")).Bold(true)
	chipStyleOver     = lipgloss.NewStyle().Foreground(lipgloss.Color("#E57373")).Bold(true)
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#E57373"))
	noticeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#9E9E9E")).Italic(true)
	confirmStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#E57373")).Bold(true)
	sectionStyle      = lipgloss.NewStyle().Bold(true)
	sectionOpenStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	badgeStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#E57373")).Padding(0, 1)
	bodyStyle         = lipgloss.NewStyle().PaddingLeft(2)
	labelStyle        = lipgloss.NewStyle().Width(16).Foreground(lipgloss.Color("#9E9E9E"))
	cursorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	mutedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#757575"))
	paneStyle         = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#424242")).Padding(0, 1)
	paneActiveStyle   = paneStyle.BorderForeground(lipgloss.Color("#5B8DEF"))
	occupancyOKStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	occupancyBadStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E57373")).Bold(true)
)
