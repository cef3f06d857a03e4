package store

import (
	"context"
	"sync"

	herodb "github.com/rongrafil/superhero-database-auth"
)

// Memory is a SessionStore for tests and hosts that do not want persistence
// across restarts.
type Memory struct {
	mu      sync.Mutex
	session *herodb.Session
}

var _ herodb.SessionStore = &Memory{}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load implements herodb.SessionStore.
func (m *Memory) Load(_ context.Context) (*herodb.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	clone := *m.session
	return &clone, nil
}

// Save implements herodb.SessionStore.
func (m *Memory) Save(_ context.Context, session *herodb.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session == nil {
		m.session = nil
		return nil
	}
	clone := *session
	m.session = &clone
	return nil
}

// Delete implements herodb.SessionStore.
func (m *Memory) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
