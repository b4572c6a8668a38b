package screen

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/melo/internal/bus"
)

// State is the top-level screen the client shows.
type State string

const (
	Booting        State = "BOOTING"
	SignedOut      State = "SIGNED_OUT"
	Authenticating State = "AUTHENTICATING"
	SignedIn       State = "SIGNED_IN"
)

var validTransitions = map[State][]State{
	Booting:        {SignedOut, SignedIn},
	SignedOut:      {Authenticating},
	Authenticating: {SignedIn, SignedOut},
	SignedIn:       {SignedOut},
}

// Machine tracks and enforces screen transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a machine in the Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition moves to a new state. An invalid transition returns an error
// and leaves the state unchanged.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	from := m.current
	if !slices.Contains(validTransitions[from], to) {
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	m.current = to
	m.mu.Unlock()

	m.bus.Emit(bus.ScreenChanged, Change{From: from, To: to})
	return nil
}

// Change is the payload for screen.changed events.
type Change struct {
	From State
	To   State
}
