package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abdullah-assistant/assistant/internal/dialogue"
	bolt "go.etcd.io/bbolt"
)

var (
	transcriptsBucket = []byte("transcripts")
	statesBucket      = []byte("states")
	preferencesBucket = []byte("preferences")
)

type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{transcriptsBucket, statesBucket, preferencesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) GetTranscript(conversationID string) ([]Message, error) {
	var msgs []Message
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(transcriptsBucket), conversationID, &msgs)
	})
	return msgs, err
}

// AppendMessages adds msgs to the end of the transcript in one transaction,
// keeping only the most recent messages.
func (s *BoltStore) AppendMessages(conversationID string, msgs ...Message) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(transcriptsBucket)
		var existing []Message
		if err := getJSON(b, conversationID, &existing); err != nil {
			return err
		}
		return putJSON(b, conversationID, trimTranscript(append(existing, msgs...)))
	})
}

func (s *BoltStore) ClearTranscript(conversationID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(transcriptsBucket).Delete([]byte(conversationID))
	})
}

func (s *BoltStore) GetState(conversationID string) (*dialogue.State, error) {
	var state *dialogue.State
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(statesBucket), conversationID, &state)
	})
	if err != nil {
		return nil, err
	}
	if state != nil && state.Slots == nil {
		state.Slots = map[string]string{}
	}
	return state, nil
}

func (s *BoltStore) SaveState(conversationID string, state dialogue.State) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(statesBucket), conversationID, state)
	})
}

func (s *BoltStore) DeleteState(conversationID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(statesBucket).Delete([]byte(conversationID))
	})
}

func (s *BoltStore) GetPreferences(conversationID string) (*Preferences, error) {
	var p *Preferences
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(preferencesBucket), conversationID, &p)
	})
	return p, err
}

func (s *BoltStore) SavePreferences(conversationID string, p Preferences) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(preferencesBucket), conversationID, p)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// getJSON leaves v untouched when key is absent.
func getJSON(b *bolt.Bucket, key string, v any) error {
	data := b.Get([]byte(key))
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %q: %w", key, err)
	}
	return nil
}

func putJSON(b *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}
