// Package keys maps key presses to actions, scoped by page.
package keys

import "github.com/gdamore/tcell/v2"

// Action represents a keybinding action.
type Action struct {
	Name        string
	Key         tcell.Key
	Rune        rune
	Label       string
	Description string
	Handler     func()
	Visible     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Registry holds keybindings organized by scope, in registration order.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{
		views: make(map[string][]*Action),
	}
}

// AddGlobal registers a binding active on every page.
func (r *Registry) AddGlobal(action *Action) {
	r.global = append(r.global, action)
}

// AddView registers a binding active only on view.
func (r *Registry) AddView(view string, action *Action) {
	r.views[view] = append(r.views[view], action)
}

// Actions returns the bindings active on view, view-specific first.
func (r *Registry) Actions(view string) []*Action {
	out := make([]*Action, 0, len(r.views[view])+len(r.global))
	out = append(out, r.views[view]...)
	return append(out, r.global...)
}

// Visible returns the bindings shown in the menu bar for view.
func (r *Registry) Visible(view string) []*Action {
	var out []*Action
	for _, a := range r.Actions(view) {
		if a.Visible {
			out = append(out, a)
		}
	}
	return out
}

// HandleEvent dispatches a key event to the first matching action on view.
// Returns true if a handler matched.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, a := range r.Actions(view) {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	return false
}
