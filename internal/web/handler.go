// Package web exposes conversations over HTTP and WebSocket.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/abdullah-assistant/assistant/internal/host"
	"github.com/abdullah-assistant/assistant/internal/observability"
	"github.com/abdullah-assistant/assistant/internal/speech"
	"github.com/abdullah-assistant/assistant/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	maxMessageBody       = 64 << 10
	maxConversationIDLen = 128
)

type Handler struct {
	host        *host.Host
	transcriber speech.Transcriber
	log         *zap.Logger
}

// NewHandler builds the HTTP API. A nil transcriber disables voice input.
func NewHandler(h *host.Host, transcriber speech.Transcriber, logger *zap.Logger) *Handler {
	return &Handler{host: h, transcriber: transcriber, log: logger.Named("web")}
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/capabilities", h.handleCapabilities)
		r.Route("/conversations/{id}", func(r chi.Router) {
			r.Delete("/", h.handleReset)
			r.Get("/messages", h.handleMessages)
			r.Post("/messages", h.handleSend)
			r.Get("/preferences", h.handleGetPreferences)
			r.Put("/preferences", h.handlePutPreferences)
			r.Post("/voice", h.handleVoice)
		})
	})
	r.Get("/ws/conversations/{id}", h.handleSocket)
}

type sendRequest struct {
	Text string `json:"text"`
}

type capabilities struct {
	SpeechInput   bool  `json:"speech_input"`
	TypingDelayMS int64 `json:"typing_delay_ms"`
}

type voiceResponse struct {
	Transcript string `json:"transcript"`
	*host.Turn
}

func (h *Handler) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, capabilities{
		SpeechInput:   h.transcriber != nil,
		TypingDelayMS: h.host.TypingDelay().Milliseconds(),
	})
}

func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	msgs, err := h.host.Open(r.Context(), id)
	if err != nil {
		h.internalError(w, "open conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]store.Message{"messages": nonNil(msgs)})
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	var req sendRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxMessageBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	turn, err := h.host.Send(r.Context(), id, req.Text)
	if err != nil {
		h.turnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	if err := h.host.Reset(r.Context(), id); err != nil {
		h.internalError(w, "reset conversation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	p, err := h.host.Preferences(r.Context(), id)
	if err != nil {
		h.internalError(w, "load preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	var p store.Preferences
	if err := json.NewDecoder(io.LimitReader(r.Body, maxMessageBody)).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	err := h.host.SavePreferences(r.Context(), id, p)
	switch {
	case errors.Is(err, host.ErrInvalidTheme):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.internalError(w, "save preferences", err)
	default:
		writeJSON(w, http.StatusOK, p)
	}
}

func (h *Handler) handleVoice(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	if h.transcriber == nil {
		writeError(w, http.StatusServiceUnavailable, "speech input is not available")
		return
	}

	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, speech.MaxAudioBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio too large")
		return
	}
	if err := speech.ValidateWAV(audio); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	text, err := h.transcriber.Transcribe(r.Context(), audio)
	if err != nil {
		observability.ChannelErrorsTotal.WithLabelValues("speech").Inc()
		h.internalError(w, "transcribe", err)
		return
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "no speech recognized")
		return
	}

	turn, err := h.host.Send(r.Context(), id, text)
	if err != nil {
		h.turnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, voiceResponse{Transcript: text, Turn: turn})
}

func (h *Handler) turnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, host.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, host.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		h.internalError(w, "send message", err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.log.Error(op+" failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// conversationID reads and validates the {id} URL parameter. IDs are
// restricted to [A-Za-z0-9_-] so they cannot collide with channel-prefixed
// conversations such as WhatsApp's.
func conversationID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !validConversationID(id) {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return "", false
	}
	return id, true
}

func validConversationID(id string) bool {
	if id == "" || len(id) > maxConversationIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

func nonNil(msgs []store.Message) []store.Message {
	if msgs == nil {
		return []store.Message{}
	}
	return msgs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
