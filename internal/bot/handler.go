// Package bot connects the WhatsApp channel to the conversation host.
package bot

import (
	"context"
	"errors"

	"github.com/abdullah-assistant/assistant/internal/host"
	"github.com/abdullah-assistant/assistant/internal/observability"
	"github.com/abdullah-assistant/assistant/internal/whatsapp"
	"go.uber.org/zap"
)

// Sender delivers replies to a WhatsApp user.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
	SendInteractiveButtons(ctx context.Context, to, body string, buttons []whatsapp.Button) error
	SendList(ctx context.Context, to, body, buttonText string, sections []whatsapp.Section) error
	MarkReadTyping(ctx context.Context, messageID string) error
}

const (
	conversationPrefix = "wa:"
	listButtonText     = "Options"

	rateLimitedReply = "You're sending messages too fast. Please wait a minute and try again."
	failureReply     = "Sorry, something went wrong while processing your message. Please try again later."
)

type Handler struct {
	wa   Sender
	host *host.Host
	log  *zap.Logger
}

func NewHandler(wa Sender, h *host.Host, logger *zap.Logger) *Handler {
	return &Handler{wa: wa, host: h, log: logger.Named("bot")}
}

// ConversationID maps a WhatsApp phone number to its conversation.
func ConversationID(phone string) string {
	return conversationPrefix + phone
}

func (h *Handler) HandleMessage(ctx context.Context, phone, messageID, text string) {
	// The reply is delivered after the webhook request may have finished.
	ctx = context.WithoutCancel(ctx)

	turn, err := h.host.Send(ctx, ConversationID(phone), text, host.WithTypingIndicator(func() {
		if err := h.wa.MarkReadTyping(ctx, messageID); err != nil {
			h.log.Debug("typing indicator failed", zap.String("phone", phone), zap.Error(err))
		}
	}))
	switch {
	case errors.Is(err, host.ErrEmptyMessage):
		return
	case errors.Is(err, host.ErrRateLimited):
		h.sendText(ctx, phone, rateLimitedReply)
		return
	case err != nil:
		h.log.Error("turn failed", zap.String("phone", phone), zap.Error(err))
		h.sendText(ctx, phone, failureReply)
		return
	}

	reply := turn.Assistant
	var sendErr error
	switch n := len(reply.Options); {
	case n == 0:
		sendErr = h.wa.SendText(ctx, phone, reply.Content)
	case n <= 3:
		sendErr = h.wa.SendInteractiveButtons(ctx, phone, reply.Content, whatsapp.ReplyButtons(reply.Options))
	default:
		sendErr = h.wa.SendList(ctx, phone, reply.Content, listButtonText, whatsapp.ListSections(reply.Options))
	}

	if sendErr != nil {
		observability.ChannelErrorsTotal.WithLabelValues("whatsapp").Inc()
		h.log.Error("failed to send reply", zap.String("phone", phone), zap.Error(sendErr))
	}
}

func (h *Handler) sendText(ctx context.Context, phone, body string) {
	if err := h.wa.SendText(ctx, phone, body); err != nil {
		observability.ChannelErrorsTotal.WithLabelValues("whatsapp").Inc()
		h.log.Error("failed to send text", zap.String("phone", phone), zap.Error(err))
	}
}
