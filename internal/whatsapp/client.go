package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultAPIURL = "https://graph.facebook.com/v21.0"

type Client struct {
	apiURL        string
	phoneNumberID string
	accessToken   string
	http          *http.Client
}

func NewClient(apiURL, phoneNumberID, accessToken string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL:        apiURL,
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
		http:          &http.Client{Timeout: 15 * time.Second},
	}
}

// SendText delivers a plain text reply.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	msg := outbound(to, "text")
	msg.Text = &SendText{Body: body}
	return c.send(ctx, msg)
}

// SendInteractiveButtons delivers body with up to three reply buttons.
func (c *Client) SendInteractiveButtons(ctx context.Context, to, body string, buttons []Button) error {
	return c.sendInteractive(ctx, to, "button", body, InteractiveAction{Buttons: buttons})
}

// SendList delivers body with a list opened by buttonText.
func (c *Client) SendList(ctx context.Context, to, body, buttonText string, sections []Section) error {
	return c.sendInteractive(ctx, to, "list", body, InteractiveAction{Button: buttonText, Sections: sections})
}

func (c *Client) sendInteractive(ctx context.Context, to, kind, body string, action InteractiveAction) error {
	msg := outbound(to, "interactive")
	msg.Interactive = &Interactive{Type: kind, Body: InteractiveBody{Text: body}, Action: action}
	return c.send(ctx, msg)
}

func outbound(to, kind string) SendMessageRequest {
	return SendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             kind,
	}
}

// MarkReadTyping marks an incoming message as read and shows the typing
// indicator to the sender until the next reply (or about 25 seconds).
func (c *Client) MarkReadTyping(ctx context.Context, messageID string) error {
	return c.post(ctx, StatusRequest{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
		TypingIndicator:  &TypingIndicator{Type: "text"},
	})
}

func (c *Client) send(ctx context.Context, msg SendMessageRequest) error {
	if err := c.post(ctx, msg); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.apiURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp API status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
