package store

import (
	"sync"

	"github.com/abdullah-assistant/assistant/internal/dialogue"
)

// MemoryStore keeps everything in process memory. Values are copied on the
// way in and out so callers never share maps or slices with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	transcripts map[string][]Message
	states      map[string]dialogue.State
	preferences map[string]Preferences
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transcripts: make(map[string][]Message),
		states:      make(map[string]dialogue.State),
		preferences: make(map[string]Preferences),
	}
}

func (s *MemoryStore) GetTranscript(conversationID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMessages(s.transcripts[conversationID]), nil
}

func (s *MemoryStore) AppendMessages(conversationID string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := append(s.transcripts[conversationID], copyMessages(msgs)...)
	s.transcripts[conversationID] = trimTranscript(all)
	return nil
}

func (s *MemoryStore) ClearTranscript(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transcripts, conversationID)
	return nil
}

func (s *MemoryStore) GetState(conversationID string) (*dialogue.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[conversationID]
	if !ok {
		return nil, nil
	}
	c := st.Clone()
	return &c, nil
}

func (s *MemoryStore) SaveState(conversationID string, state dialogue.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[conversationID] = state.Clone()
	return nil
}

func (s *MemoryStore) DeleteState(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, conversationID)
	return nil
}

func (s *MemoryStore) GetPreferences(conversationID string) (*Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.preferences[conversationID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) SavePreferences(conversationID string, p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[conversationID] = p
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func copyMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		if m.Options != nil {
			m.Options = append([]string(nil), m.Options...)
		}
		out[i] = m
	}
	return out
}
