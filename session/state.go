package session

import (
	"github.com/google/uuid"

	"github.com/relnotes/go-auth-client/users"
)

// State is a snapshot of the authentication state pushed to subscribers on
// every transition.
type State struct {
	Authenticated bool
	User          *users.User
}

// Subscription is a registered listener on the state stream. Receive on C;
// call Manager.Unsubscribe when done, after which C is closed.
type Subscription struct {
	ID string
	C  <-chan State

	ch chan State
}

// Subscribe registers a listener and immediately delivers the current
// state so late subscribers do not miss it.
func (m *Manager) Subscribe() *Subscription {
	sub := &Subscription{
		ID: uuid.New().String(),
		ch: make(chan State, 8),
	}
	sub.C = sub.ch

	m.mu.Lock()
	m.subs[sub.ID] = sub
	sub.deliver(m.stateLocked())
	m.mu.Unlock()

	return sub
}

// Unsubscribe deregisters the listener and closes its channel. Safe to call
// more than once.
func (m *Manager) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	m.mu.Lock()
	_, ok := m.subs[sub.ID]
	delete(m.subs, sub.ID)
	m.mu.Unlock()

	if ok {
		close(sub.ch)
	}
}

func (m *Manager) stateLocked() State {
	return State{Authenticated: m.authenticated, User: m.user}
}

// publishLocked pushes the current state to every subscriber. Requires m.mu.
func (m *Manager) publishLocked() {
	state := m.stateLocked()
	for _, sub := range m.subs {
		sub.deliver(state)
	}
}

// deliver never blocks: when the subscriber's buffer is full the oldest
// snapshot is dropped in favor of the newest.
func (s *Subscription) deliver(state State) {
	select {
	case s.ch <- state:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- state:
	default:
	}
}
