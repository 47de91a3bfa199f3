package session

import (
	"sync"
	"time"
)

// Manager serializes turns per conversation so that a reply is recorded
// before the next message of the same conversation is processed.
// Different conversations run in parallel.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*conversationLock
}

type conversationLock struct {
	mu       sync.Mutex
	lastUsed time.Time
	// holders counts goroutines holding or waiting for mu; Cleanup skips
	// locks that are in use.
	holders int
}

func NewManager() *Manager {
	return &Manager{
		locks: make(map[string]*conversationLock),
	}
}

// WithLock executes fn while holding the conversation's mutex.
func (m *Manager) WithLock(conversationID string, fn func() error) error {
	m.mu.Lock()
	cl, ok := m.locks[conversationID]
	if !ok {
		cl = &conversationLock{}
		m.locks[conversationID] = cl
	}
	cl.holders++
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		cl.holders--
		cl.lastUsed = time.Now()
		m.mu.Unlock()
	}()

	cl.mu.Lock()
	defer cl.mu.Unlock()
	return fn()
}

// Cleanup removes idle locks not used within maxAge and returns how many
// were removed.
func (m *Manager) Cleanup(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	now := time.Now()
	for id, cl := range m.locks {
		if cl.holders == 0 && now.Sub(cl.lastUsed) > maxAge {
			delete(m.locks, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked conversations.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
