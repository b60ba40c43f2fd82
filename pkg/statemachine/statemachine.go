package statemachine

import (
	"fmt"
)

// Guard evaluates whether a transition should be allowed for subject.
type Guard[S, E comparable, T any] func(from S, event E, subject T) bool

// Action executes side effects on subject during a transition. Returning an
// error prevents the transition.
type Action[S, E comparable, T any] func(from, to S, event E, subject T) error

// Transition defines a state change triggered by an event, with optional
// guards and actions.
type Transition[S, E comparable, T any] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E, T]  // All must pass for transition to proceed
	Actions []Action[S, E, T] // Executed in order before the new state is returned
}

// Machine is a transition table over states S and events E. It holds no
// current state: the state lives in the subject and is passed to Fire, so a
// single Machine serves any number of subjects.
//
// A Machine is read-only once built and safe for concurrent use.
type Machine[S, E comparable, T any] struct {
	transitions map[S]map[E][]Transition[S, E, T]
	events      map[S][]E
}

func newMachine[S, E comparable, T any]() *Machine[S, E, T] {
	return &Machine[S, E, T]{
		transitions: make(map[S]map[E][]Transition[S, E, T]),
		events:      make(map[S][]E),
	}
}

func (m *Machine[S, E, T]) add(t Transition[S, E, T]) error {
	var zeroS S
	var zeroE E
	if t.From == zeroS || t.To == zeroS || t.Event == zeroE {
		return ErrInvalidTransition
	}

	byEvent, ok := m.transitions[t.From]
	if !ok {
		byEvent = make(map[E][]Transition[S, E, T])
		m.transitions[t.From] = byEvent
	}
	if _, seen := byEvent[t.Event]; !seen {
		m.events[t.From] = append(m.events[t.From], t.Event)
	}

	// Multiple transitions allowed for same from/event to support guard-based branching
	byEvent[t.Event] = append(byEvent[t.Event], t)
	return nil
}

// Fire runs event from state from on subject and returns the target state.
// The first transition whose guards all pass wins; its actions run in order
// and any failure aborts the transition.
func (m *Machine[S, E, T]) Fire(from S, event E, subject T) (S, error) {
	t, err := m.find(from, event, subject)
	if err != nil {
		return from, err
	}

	for _, action := range t.Actions {
		if err := action(from, t.To, event, subject); err != nil {
			return from, fmt.Errorf("action failed: %w", err)
		}
	}
	return t.To, nil
}

// CanFire reports whether event from state from would pass the guards for
// subject. Actions are not run.
func (m *Machine[S, E, T]) CanFire(from S, event E, subject T) bool {
	_, err := m.find(from, event, subject)
	return err == nil
}

// Defined reports whether any transition exists for event from state from,
// regardless of guards.
func (m *Machine[S, E, T]) Defined(from S, event E) bool {
	return len(m.transitions[from][event]) > 0
}

// Events lists the events defined from state from in the order they were
// added.
func (m *Machine[S, E, T]) Events(from S) []E {
	return append([]E(nil), m.events[from]...)
}

func (m *Machine[S, E, T]) find(from S, event E, subject T) (*Transition[S, E, T], error) {
	candidates := m.transitions[from][event]
	if len(candidates) == 0 {
		return nil, NewErrNoTransitionAvailable(from, event)
	}

	for i, t := range candidates {
		if passes(t.Guards, from, event, subject) {
			return &candidates[i], nil
		}
	}
	return nil, NewErrTransitionRejected(from, event)
}

func passes[S, E comparable, T any](guards []Guard[S, E, T], from S, event E, subject T) bool {
	for _, guard := range guards {
		if !guard(from, event, subject) {
			return false
		}
	}
	return true
}
