package ui

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
}

// Component is implemented by every page-level view.
type Component interface {
	Name() string
	Hints() []MenuHint
	// Restyle re-applies theme colors after a theme switch.
	Restyle()
}
