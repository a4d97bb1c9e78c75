package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the dashboard.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// Catalog
	Up      key.Binding
	Down    key.Binding
	Top     key.Binding
	Bottom  key.Binding
	Expand  key.Binding
	Search  key.Binding
	Sort    key.Binding
	Reload  key.Binding
	NewJob  key.Binding
	Refresh key.Binding

	// Detail
	PrevVariant  key.Binding
	NextVariant  key.Binding
	Refine       key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Submit form
	NextField   key.Binding
	CycleAspect key.Binding
	CycleRes    key.Binding
	Attach      key.Binding
	Unstage     key.Binding
	Confirm     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		Expand: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "expand/collapse"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle sort"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload jobs"),
		),
		NewJob: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new job"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh detail"),
		),

		PrevVariant: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev variant"),
		),
		NextVariant: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next variant"),
		),
		Refine: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "refine variant"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "scroll detail up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "scroll detail down"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "next field"),
		),
		CycleAspect: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "aspect ratio"),
		),
		CycleRes: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "resolution"),
		),
		Attach: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "attach file"),
		),
		Unstage: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "drop last file"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Expand, k.Search, k.Sort, k.NewJob, k.Refine, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Expand},
		{k.Search, k.Sort, k.Reload, k.Refresh, k.NewJob},
		{k.PrevVariant, k.NextVariant, k.Refine, k.HalfPageUp, k.HalfPageDown},
		{k.CycleTheme, k.Help, k.Escape, k.Quit},
	}
}

// submitHelp lists the bindings shown under the submit form.
func (k keyMap) submitHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.NextField, k.CycleAspect, k.CycleRes, k.Attach, k.Unstage, k.Escape}
}
