package lesson

import "sync"

// Manager creates and tracks live sessions. Each session is an
// independent unit of isolation; the manager only guards its own map.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	interpreter IntentInterpreter
	generator   CorrectionGenerator
	store       SessionStore
}

// NewManager creates a session manager with the given collaborators.
func NewManager(interpreter IntentInterpreter, generator CorrectionGenerator, store SessionStore) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		interpreter: interpreter,
		generator:   generator,
		store:       store,
	}
}

// Start creates a new session for the user and registers it.
func (m *Manager) Start(userID string) *Session {
	sess := NewSession(userID, m.interpreter, m.generator, m.store)

	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()

	return sess
}

// Get returns the session with the given id, or nil if unknown.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Drop removes a session from the registry. In-flight actions on the
// session finish normally; the session is simply no longer reachable.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
