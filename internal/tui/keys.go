package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit key.Binding
	Back key.Binding

	// Navigation
	Calendar  key.Binding
	Timer     key.Binding
	Dashboard key.Binding

	// Actions
	Select key.Binding
	Save   key.Binding
	Delete key.Binding
	Reload key.Binding

	// Calendar
	PrevWeek  key.Binding
	NextWeek  key.Binding
	ThisWeek  key.Binding
	Preset    key.Binding
	ScrollUp  key.Binding
	ScrollDn  key.Binding
	NextField key.Binding
	PrevField key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Calendar:  key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "week")),
	Timer:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "timer")),
	Dashboard: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "billing")),
	Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	Delete:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "delete")),
	Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	PrevWeek:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev week")),
	NextWeek:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next week")),
	ThisWeek:  key.NewBinding(key.WithKeys("."), key.WithHelp(".", "this week")),
	Preset:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "hours")),
	ScrollUp:  key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
	ScrollDn:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
}
