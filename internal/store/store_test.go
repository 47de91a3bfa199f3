package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdullah-assistant/assistant/internal/dialogue"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	bolt, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { bolt.Close() })
	return map[string]Store{
		"bolt":   bolt,
		"memory": NewMemoryStore(),
	}
}

func msg(role Role, content string, options ...string) Message {
	return Message{
		ID:        fmt.Sprintf("%s-%s", role, content),
		Role:      role,
		Content:   content,
		Options:   options,
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}
}

func TestTranscriptAppendAndClear(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.GetTranscript("c1")
			if err != nil {
				t.Fatalf("GetTranscript: %v", err)
			}
			if len(got) != 0 {
				t.Fatalf("new transcript has %d messages", len(got))
			}

			if err := s.AppendMessages("c1", msg(RoleAssistant, "hello", "Book a service")); err != nil {
				t.Fatalf("AppendMessages: %v", err)
			}
			if err := s.AppendMessages("c1", msg(RoleUser, "book"), msg(RoleAssistant, "what type?", "Taxi", "Hotel")); err != nil {
				t.Fatalf("AppendMessages: %v", err)
			}

			got, err = s.GetTranscript("c1")
			if err != nil {
				t.Fatalf("GetTranscript: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("len = %d, want 3", len(got))
			}
			if got[1].Role != RoleUser || got[1].Content != "book" {
				t.Errorf("got[1] = %+v", got[1])
			}
			if len(got[2].Options) != 2 || got[2].Options[1] != "Hotel" {
				t.Errorf("options = %v", got[2].Options)
			}
			if !got[0].CreatedAt.Equal(time.Unix(1700000000, 0)) {
				t.Errorf("created_at = %v", got[0].CreatedAt)
			}

			other, _ := s.GetTranscript("c2")
			if len(other) != 0 {
				t.Errorf("transcripts leak between conversations: %v", other)
			}

			if err := s.ClearTranscript("c1"); err != nil {
				t.Fatalf("ClearTranscript: %v", err)
			}
			got, _ = s.GetTranscript("c1")
			if len(got) != 0 {
				t.Errorf("after clear len = %d", len(got))
			}
		})
	}
}

func TestTranscriptTrimmed(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < maxTranscriptMessages+5; i++ {
				if err := s.AppendMessages("c", msg(RoleUser, fmt.Sprint(i))); err != nil {
					t.Fatalf("AppendMessages: %v", err)
				}
			}
			got, _ := s.GetTranscript("c")
			if len(got) != maxTranscriptMessages {
				t.Fatalf("len = %d, want %d", len(got), maxTranscriptMessages)
			}
			if got[0].Content != "5" {
				t.Errorf("oldest kept = %q, want %q", got[0].Content, "5")
			}
		})
	}
}

func TestStateRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			st, err := s.GetState("c")
			if err != nil || st != nil {
				t.Fatalf("GetState on empty store = %v, %v", st, err)
			}

			want := dialogue.State{Step: dialogue.StepTaxiDestination, Slots: map[string]string{
				dialogue.SlotServiceType:    "taxi",
				dialogue.SlotPickupLocation: "Main St",
			}}
			if err := s.SaveState("c", want); err != nil {
				t.Fatalf("SaveState: %v", err)
			}
			want.Slots["mutated"] = "after save"

			st, err = s.GetState("c")
			if err != nil {
				t.Fatalf("GetState: %v", err)
			}
			if st.Step != dialogue.StepTaxiDestination {
				t.Errorf("step = %q", st.Step)
			}
			if len(st.Slots) != 2 || st.Slots[dialogue.SlotPickupLocation] != "Main St" {
				t.Errorf("slots = %v", st.Slots)
			}

			if err := s.DeleteState("c"); err != nil {
				t.Fatalf("DeleteState: %v", err)
			}
			if st, _ := s.GetState("c"); st != nil {
				t.Errorf("state after delete = %+v", st)
			}
		})
	}
}

func TestStateWithoutSlotsLoadsEmptyMap(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.SaveState("c", dialogue.State{Step: dialogue.StepGreeting}); err != nil {
				t.Fatalf("SaveState: %v", err)
			}
			st, err := s.GetState("c")
			if err != nil {
				t.Fatalf("GetState: %v", err)
			}
			if st.Slots == nil {
				t.Error("slots should be an empty map, got nil")
			}
		})
	}
}

func TestPreferences(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p, err := s.GetPreferences("c")
			if err != nil || p != nil {
				t.Fatalf("GetPreferences on empty store = %v, %v", p, err)
			}
			if err := s.SavePreferences("c", Preferences{Theme: ThemeDark}); err != nil {
				t.Fatalf("SavePreferences: %v", err)
			}
			p, err = s.GetPreferences("c")
			if err != nil {
				t.Fatalf("GetPreferences: %v", err)
			}
			if p.Theme != ThemeDark {
				t.Errorf("theme = %q, want dark", p.Theme)
			}
		})
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	if err := s.SaveState("c", dialogue.State{Step: dialogue.StepCompletion, Slots: map[string]string{"date": "today"}}); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if err := s.AppendMessages("c", msg(RoleUser, "hi")); err != nil {
		t.Fatalf("AppendMessages: %v", err)
	}
	s.Close()

	s, err = NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	st, err := s.GetState("c")
	if err != nil || st == nil || st.Step != dialogue.StepCompletion {
		t.Fatalf("GetState after reopen = %+v, %v", st, err)
	}
	msgs, _ := s.GetTranscript("c")
	if len(msgs) != 1 || msgs[0].Content != "hi" {
		t.Errorf("transcript after reopen = %+v", msgs)
	}
}

func TestThemeValid(t *testing.T) {
	for _, th := range []Theme{ThemeSystem, ThemeLight, ThemeDark} {
		if !th.Valid() {
			t.Errorf("%q should be valid", th)
		}
	}
	if Theme("neon").Valid() {
		t.Error("neon should be invalid")
	}
}
