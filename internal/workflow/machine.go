// Package workflow provides a mutex-guarded finite-state machine whose
// transitions are gated by submission tickets.
//
// Every Begin issues a ticket with a higher sequence number than any before
// it. Only the holder of the latest ticket may advance the machine, so a
// slow response from an earlier submission can never overwrite the state
// produced by a later one. Reset also bumps the sequence, invalidating every
// outstanding ticket.
package workflow

import (
	"fmt"
	"sync"

	dErrors "credguard/pkg/domain-errors"
)

// State names a workflow state.
type State string

// Transitions lists the allowed target states for each source state.
type Transitions map[State][]State

// Ticket identifies one submission.
type Ticket struct {
	seq uint64
}

// Seq returns the ticket's sequence number.
func (t Ticket) Seq() uint64 { return t.seq }

// Snapshot is a consistent view of the machine.
type Snapshot[T any] struct {
	State State
	Seq   uint64
	Data  T
}

// Listener observes every applied transition. Listeners run synchronously
// in transition order and must not drive the machine themselves.
type Listener[T any] func(from State, snap Snapshot[T])

// Machine is a ticketed state machine carrying workflow data T.
type Machine[T any] struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	initial   State
	state     State
	seq       uint64
	data      T
	edges     map[State]map[State]struct{}
	listeners []Listener[T]
}

// New creates a machine in the initial state.
func New[T any](initial State, transitions Transitions) *Machine[T] {
	edges := make(map[State]map[State]struct{}, len(transitions))
	for from, targets := range transitions {
		set := make(map[State]struct{}, len(targets))
		for _, to := range targets {
			set[to] = struct{}{}
		}
		edges[from] = set
	}
	return &Machine[T]{initial: initial, state: initial, edges: edges}
}

// Subscribe registers a listener.
func (m *Machine[T]) Subscribe(fn Listener[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Begin starts a new submission by moving to state to. Any earlier ticket
// becomes stale. update, when non-nil, runs against the data under the lock.
func (m *Machine[T]) Begin(to State, update func(*T)) (Ticket, error) {
	m.mu.Lock()
	if !m.allowed(m.state, to) {
		from := m.state
		m.mu.Unlock()
		return Ticket{}, invalidTransition(from, to)
	}
	m.seq++
	t := Ticket{seq: m.seq}
	m.apply(to, update)
	return t, nil
}

// Advance moves the machine on behalf of ticket t. A stale ticket yields a
// superseded error and leaves state untouched.
func (m *Machine[T]) Advance(t Ticket, to State, update func(*T)) error {
	m.mu.Lock()
	if t.seq != m.seq {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeSuperseded, "submission superseded by a newer one")
	}
	if !m.allowed(m.state, to) {
		from := m.state
		m.mu.Unlock()
		return invalidTransition(from, to)
	}
	m.apply(to, update)
	return nil
}

// Current reports whether t is still the latest ticket.
func (m *Machine[T]) Current(t Ticket) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return t.seq == m.seq
}

// Reset returns to the initial state with zero data and invalidates every
// outstanding ticket.
func (m *Machine[T]) Reset() {
	m.mu.Lock()
	m.seq++
	m.apply(m.initial, func(d *T) {
		var zero T
		*d = zero
	})
}

// State returns the current state.
func (m *Machine[T]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns a consistent copy of state, sequence and data.
func (m *Machine[T]) Snapshot() Snapshot[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot[T]{State: m.state, Seq: m.seq, Data: m.data}
}

func (m *Machine[T]) allowed(from, to State) bool {
	_, ok := m.edges[from][to]
	return ok
}

// apply is entered with mu held and releases it. The notify lock is taken
// before mu is released so listeners observe transitions in order.
func (m *Machine[T]) apply(to State, update func(*T)) {
	from := m.state
	m.state = to
	if update != nil {
		update(&m.data)
	}
	snap := Snapshot[T]{State: m.state, Seq: m.seq, Data: m.data}
	listeners := append([]Listener[T](nil), m.listeners...)

	m.notifyMu.Lock()
	m.mu.Unlock()
	defer m.notifyMu.Unlock()
	for _, fn := range listeners {
		fn(from, snap)
	}
}

func invalidTransition(from, to State) error {
	return dErrors.New(dErrors.CodeInvalidState, fmt.Sprintf("cannot move from %s to %s", from, to))
}
