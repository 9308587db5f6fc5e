package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit          key.Binding
	Save          key.Binding
	Delete        key.Binding
	NextStage     key.Binding
	PrevStage     key.Binding
	CloseStage    key.Binding
	Up            key.Binding
	Down          key.Binding
	Left          key.Binding
	Right         key.Binding
	Select        key.Binding
	Check         key.Binding
	Remove        key.Binding
	Assign        key.Binding
	Ground        key.Binding
	Owned         key.Binding
	Manufacturer  key.Binding
	Filter        key.Binding
	ConfirmDelete key.Binding
	CancelDelete  key.Binding
}

var keys = keyMap{
	Quit:          key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "close")),
	Save:          key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	Delete:        key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "delete")),
	NextStage:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next stage")),
	PrevStage:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev stage")),
	CloseStage:    key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "collapse")),
	Up:            key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
	Down:          key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
	Left:          key.NewBinding(key.WithKeys("left")),
	Right:         key.NewBinding(key.WithKeys("right")),
	Select:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add")),
	Check:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "check")),
	Remove:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
	Assign:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "cycle vessel")),
	Ground:        key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "ground support")),
	Owned:         key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "add owned ships")),
	Manufacturer:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "manufacturer")),
	Filter:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	ConfirmDelete: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm delete")),
	CancelDelete:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.NextStage, k.Delete, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Save, k.Delete, k.NextStage, k.PrevStage, k.CloseStage, k.Quit},
		{k.Up, k.Down, k.Select, k.Check, k.Remove},
		{k.Assign, k.Ground, k.Owned, k.Manufacturer, k.Filter},
	}
}
