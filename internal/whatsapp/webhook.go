package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// OptionIDPrefix marks reply IDs that carry the full option text, so a tap
// on a shortened button title still replays the option verbatim.
const OptionIDPrefix = "opt:"

// MessageHandler is called for each incoming message with (senderPhone, messageID, messageBody).
type MessageHandler func(ctx context.Context, phone, messageID, text string)

type WebhookHandler struct {
	verifyToken string
	appSecret   string
	onMessage   MessageHandler
	log         *zap.Logger
}

// NewWebhookHandler builds the webhook endpoints. When appSecret is set,
// notifications must carry a valid X-Hub-Signature-256 header.
func NewWebhookHandler(verifyToken, appSecret string, onMessage MessageHandler, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		onMessage:   onMessage,
		log:         logger.Named("webhook"),
	}
}

// HandleVerify handles the GET webhook verification from Meta.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/get-started#webhook-verification
func (h *WebhookHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleIncoming processes incoming webhook POST notifications.
// Messages are handled in payload order before responding, which keeps the
// turns of one sender in sequence.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/webhooks/components
func (h *WebhookHandler) HandleIncoming(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.log.Warn("failed to read payload", zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.appSecret != "" && !validSignature(h.appSecret, body, r.Header.Get("X-Hub-Signature-256")) {
		h.log.Warn("rejected payload with invalid signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload Notification
	if err := json.Unmarshal(body, &payload); err != nil {
		h.log.Warn("failed to decode payload", zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := r.Context()
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if text, ok := utterance(msg); ok {
					h.onMessage(ctx, msg.From, msg.ID, text)
				}
			}
		}
	}

	w.WriteHeader(http.StatusOK)
}

// utterance extracts what the user said or tapped. Other message types
// (media, reactions, locations) are ignored.
func utterance(msg InboundMessage) (string, bool) {
	switch msg.Type {
	case "text":
		if msg.Text != nil {
			return msg.Text.Body, true
		}
	case "interactive":
		if msg.Interactive == nil {
			return "", false
		}
		switch msg.Interactive.Type {
		case "button_reply":
			if r := msg.Interactive.ButtonReply; r != nil {
				return optionText(r.ID, r.Title), true
			}
		case "list_reply":
			if r := msg.Interactive.ListReply; r != nil {
				return optionText(r.ID, r.Title), true
			}
		}
	}
	return "", false
}

func optionText(id, title string) string {
	if strings.HasPrefix(id, OptionIDPrefix) {
		return strings.TrimPrefix(id, OptionIDPrefix)
	}
	return title
}

func validSignature(secret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
