package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/abdullah-assistant/assistant/internal/host"
	"github.com/abdullah-assistant/assistant/internal/observability"
	"github.com/abdullah-assistant/assistant/internal/store"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Frame is a server-to-client WebSocket message.
type Frame struct {
	Type     string          `json:"type"`
	Messages []store.Message `json:"messages,omitempty"`
	Message  *store.Message  `json:"message,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// socket serializes writes; gorilla connections allow one concurrent writer.
type socket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *socket) send(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(f)
}

func (s *socket) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (h *Handler) handleSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	observability.ActiveSockets.Inc()
	defer observability.ActiveSockets.Dec()

	s := &socket{conn: conn}
	ctx := r.Context()

	history, err := h.host.Open(ctx, id)
	if err != nil {
		h.log.Error("open conversation failed", zap.String("conversation", id), zap.Error(err))
		s.send(Frame{Type: "error", Error: "internal error"})
		return
	}
	if err := s.send(Frame{Type: "history", Messages: nonNil(history)}); err != nil {
		return
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := s.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket closed", zap.String("conversation", id), zap.Error(err))
			}
			return
		}
		var req sendRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if s.send(Frame{Type: "error", Error: "invalid message"}) != nil {
				return
			}
			continue
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		turn, err := h.host.Send(ctx, id, req.Text, host.WithTypingIndicator(func() {
			s.send(Frame{Type: "typing"})
		}))
		if err != nil {
			msg := "internal error"
			if errors.Is(err, host.ErrEmptyMessage) || errors.Is(err, host.ErrRateLimited) {
				msg = err.Error()
			} else {
				h.log.Error("send failed", zap.String("conversation", id), zap.Error(err))
			}
			if s.send(Frame{Type: "error", Error: msg}) != nil {
				return
			}
			continue
		}
		if err := s.send(Frame{Type: "message", Message: &turn.Assistant}); err != nil {
			return
		}
	}
}
