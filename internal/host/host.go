// Package host runs conversations around the dialogue engine: it keeps the
// transcript and state of every conversation, serializes its turns and
// applies the typing delay before a reply is surfaced.
package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abdullah-assistant/assistant/internal/dialogue"
	"github.com/abdullah-assistant/assistant/internal/observability"
	"github.com/abdullah-assistant/assistant/internal/session"
	"github.com/abdullah-assistant/assistant/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultTypingDelay   = 1500 * time.Millisecond
	DefaultRatePerMinute = 30
)

var (
	ErrEmptyMessage = errors.New("empty message")
	ErrRateLimited  = errors.New("too many messages")
	ErrInvalidTheme = errors.New("invalid theme")
)

// WelcomeOptions are offered with the greeting of a new conversation.
var WelcomeOptions = []string{"Book a service", "Check availability", "I need help", "Live agent"}

type Host struct {
	engine   *dialogue.Engine
	store    store.Store
	sessions *session.Manager
	log      *zap.Logger

	delay time.Duration
	sleep func(time.Duration)
	now   func() time.Time

	ratePerMinute int
	mu            sync.Mutex
	limiters      map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Option configures a Host.
type Option func(*Host)

// WithTypingDelay sets the pause between computing a reply and recording it.
func WithTypingDelay(d time.Duration) Option {
	return func(h *Host) { h.delay = d }
}

// WithRateLimit caps messages per conversation per minute. Zero disables it.
func WithRateLimit(perMinute int) Option {
	return func(h *Host) { h.ratePerMinute = perMinute }
}

func New(engine *dialogue.Engine, s store.Store, sessions *session.Manager, logger *zap.Logger, opts ...Option) *Host {
	h := &Host{
		engine:        engine,
		store:         s,
		sessions:      sessions,
		log:           logger.Named("host"),
		delay:         DefaultTypingDelay,
		sleep:         time.Sleep,
		now:           time.Now,
		ratePerMinute: DefaultRatePerMinute,
		limiters:      make(map[string]*limiterEntry),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// TypingDelay returns the configured typing delay.
func (h *Host) TypingDelay() time.Duration { return h.delay }

// Turn is the outcome of one user message.
type Turn struct {
	User      store.Message  `json:"user"`
	Assistant store.Message  `json:"assistant"`
	State     dialogue.State `json:"state"`
}

type turnConfig struct {
	onTyping func()
}

// TurnOption customizes a single Send.
type TurnOption func(*turnConfig)

// WithTypingIndicator registers fn to be called once the reply is computed
// and the typing delay starts.
func WithTypingIndicator(fn func()) TurnOption {
	return func(c *turnConfig) { c.onTyping = fn }
}

// Open returns the transcript of a conversation, greeting it first when it
// has no messages yet.
func (h *Host) Open(ctx context.Context, conversationID string) ([]store.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var msgs []store.Message
	err := h.sessions.WithLock(conversationID, func() error {
		var err error
		msgs, err = h.seedLocked(conversationID)
		return err
	})
	return msgs, err
}

// seedLocked returns the transcript, first recording the welcome message and
// the initial state when the conversation has no messages. The caller holds
// the conversation lock.
func (h *Host) seedLocked(conversationID string) ([]store.Message, error) {
	msgs, err := h.store.GetTranscript(conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading transcript: %w", err)
	}
	if len(msgs) > 0 {
		return msgs, nil
	}

	welcome := h.newMessage(store.RoleAssistant,
		fmt.Sprintf("Hello! I'm %s. How can I help you today?", h.engine.Name()),
		WelcomeOptions)
	if err := h.store.AppendMessages(conversationID, welcome); err != nil {
		return nil, fmt.Errorf("saving welcome: %w", err)
	}
	if err := h.store.SaveState(conversationID, dialogue.Initial()); err != nil {
		return nil, fmt.Errorf("saving state: %w", err)
	}
	h.log.Debug("conversation opened", zap.String("conversation", conversationID))
	return []store.Message{welcome}, nil
}

// Send processes one user utterance. Clicking an offered option is a Send
// of the option text. Once started, a turn runs to completion even if ctx
// is cancelled, so the transcript never holds a message without its reply.
func (h *Host) Send(ctx context.Context, conversationID, text string, opts ...TurnOption) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !h.allow(conversationID) {
		observability.RateLimitRejectedTotal.Inc()
		return nil, ErrRateLimited
	}

	var cfg turnConfig
	for _, o := range opts {
		o(&cfg)
	}

	start := h.now()
	var turn *Turn
	err := h.sessions.WithLock(conversationID, func() error {
		if _, err := h.seedLocked(conversationID); err != nil {
			return err
		}
		state, err := h.loadState(conversationID)
		if err != nil {
			return err
		}

		user := h.newMessage(store.RoleUser, text, nil)
		out := h.engine.Respond(text, state)

		if cfg.onTyping != nil {
			cfg.onTyping()
		}
		if h.delay > 0 {
			h.sleep(h.delay)
		}

		reply := h.newMessage(store.RoleAssistant, out.Message, out.Options)
		if err := h.store.AppendMessages(conversationID, user, reply); err != nil {
			return fmt.Errorf("saving turn: %w", err)
		}
		if err := h.store.SaveState(conversationID, out.NextState); err != nil {
			return fmt.Errorf("saving state: %w", err)
		}

		turn = &Turn{User: user, Assistant: reply, State: out.NextState}
		return nil
	})
	if err != nil {
		h.log.Error("turn failed", zap.String("conversation", conversationID), zap.Error(err))
		return nil, err
	}

	observability.TurnsTotal.WithLabelValues(string(turn.State.Step)).Inc()
	observability.TurnDuration.Observe(h.now().Sub(start).Seconds())
	if turn.State.Step == dialogue.StepEscalated {
		observability.EscalationsTotal.Inc()
		h.log.Info("conversation escalated", zap.String("conversation", conversationID))
	}
	h.log.Debug("turn",
		zap.String("conversation", conversationID),
		zap.String("step", string(turn.State.Step)),
		zap.Int("slots", len(turn.State.Slots)),
	)
	return turn, nil
}

// State returns the current dialogue state of a conversation.
func (h *Host) State(ctx context.Context, conversationID string) (dialogue.State, error) {
	if err := ctx.Err(); err != nil {
		return dialogue.State{}, err
	}
	return h.loadState(conversationID)
}

// Transcript returns the messages of a conversation without greeting it.
func (h *Host) Transcript(ctx context.Context, conversationID string) ([]store.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msgs, err := h.store.GetTranscript(conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading transcript: %w", err)
	}
	return msgs, nil
}

// Reset forgets the transcript and state of a conversation.
func (h *Host) Reset(ctx context.Context, conversationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.sessions.WithLock(conversationID, func() error {
		if err := h.store.ClearTranscript(conversationID); err != nil {
			return fmt.Errorf("clearing transcript: %w", err)
		}
		if err := h.store.DeleteState(conversationID); err != nil {
			return fmt.Errorf("deleting state: %w", err)
		}
		h.log.Info("conversation reset", zap.String("conversation", conversationID))
		return nil
	})
}

// Preferences returns the saved preferences, or the defaults.
func (h *Host) Preferences(ctx context.Context, conversationID string) (store.Preferences, error) {
	if err := ctx.Err(); err != nil {
		return store.Preferences{}, err
	}
	p, err := h.store.GetPreferences(conversationID)
	if err != nil {
		return store.Preferences{}, fmt.Errorf("loading preferences: %w", err)
	}
	if p == nil {
		return store.DefaultPreferences(), nil
	}
	return *p, nil
}

func (h *Host) SavePreferences(ctx context.Context, conversationID string, p store.Preferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.Theme.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, p.Theme)
	}
	if err := h.store.SavePreferences(conversationID, p); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}

// Cleanup drops per-conversation locks and limiters idle for longer than maxIdle.
func (h *Host) Cleanup(maxIdle time.Duration) {
	locks := h.sessions.Cleanup(maxIdle)

	h.mu.Lock()
	limiters := 0
	now := h.now()
	for id, e := range h.limiters {
		if now.Sub(e.lastSeen) > maxIdle {
			delete(h.limiters, id)
			limiters++
		}
	}
	h.mu.Unlock()

	if locks > 0 || limiters > 0 {
		h.log.Debug("cleanup", zap.Int("locks", locks), zap.Int("limiters", limiters))
	}
}

func (h *Host) loadState(conversationID string) (dialogue.State, error) {
	st, err := h.store.GetState(conversationID)
	if err != nil {
		return dialogue.State{}, fmt.Errorf("loading state: %w", err)
	}
	if st == nil {
		return dialogue.Initial(), nil
	}
	return *st, nil
}

func (h *Host) allow(conversationID string) bool {
	if h.ratePerMinute <= 0 {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.limiters[conversationID]
	if !ok {
		e = &limiterEntry{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(h.ratePerMinute)), h.ratePerMinute),
		}
		h.limiters[conversationID] = e
	}
	e.lastSeen = h.now()
	return e.limiter.AllowN(e.lastSeen, 1)
}

func (h *Host) newMessage(role store.Role, content string, options []string) store.Message {
	return store.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Options:   options,
		CreatedAt: h.now().UTC(),
	}
}
