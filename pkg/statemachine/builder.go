package statemachine

// Builder provides a fluent API for building a Machine.
//
// The first invalid transition is remembered and returned by Build, so a
// table can be declared as one chain.
type Builder[S, E comparable, T any] struct {
	machine *Machine[S, E, T]
	current Transition[S, E, T]
	err     error
}

// NewBuilder creates an empty builder.
func NewBuilder[S, E comparable, T any]() *Builder[S, E, T] {
	return &Builder[S, E, T]{machine: newMachine[S, E, T]()}
}

// From sets the starting state for a transition.
func (b *Builder[S, E, T]) From(state S) *Builder[S, E, T] {
	b.current = Transition[S, E, T]{From: state}
	return b
}

// When sets the event that triggers a transition.
func (b *Builder[S, E, T]) When(event E) *Builder[S, E, T] {
	b.current.Event = event
	return b
}

// To sets the target state for a transition.
func (b *Builder[S, E, T]) To(state S) *Builder[S, E, T] {
	b.current.To = state
	return b
}

// WithGuard adds guards to the current transition.
func (b *Builder[S, E, T]) WithGuard(guards ...Guard[S, E, T]) *Builder[S, E, T] {
	for _, g := range guards {
		if g != nil {
			b.current.Guards = append(b.current.Guards, g)
		}
	}
	return b
}

// WithAction adds actions to the current transition.
func (b *Builder[S, E, T]) WithAction(actions ...Action[S, E, T]) *Builder[S, E, T] {
	for _, a := range actions {
		if a != nil {
			b.current.Actions = append(b.current.Actions, a)
		}
	}
	return b
}

// Add finalizes the current transition and adds it to the machine.
func (b *Builder[S, E, T]) Add() *Builder[S, E, T] {
	if b.err == nil {
		b.err = b.machine.add(b.current)
	}
	b.current = Transition[S, E, T]{}
	return b
}

// Build returns the constructed machine or the first error met while
// adding transitions.
func (b *Builder[S, E, T]) Build() (*Machine[S, E, T], error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.machine, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder[S, E, T]) MustBuild() *Machine[S, E, T] {
	m, err := b.Build()
	if err != nil {
		panic("statemachine: " + err.Error())
	}
	return m
}
