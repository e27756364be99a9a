// Package mailer sends transactional email through the Resend HTTP API and
// renders the product's email templates.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Message is one outgoing email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Kind    string `json:"kind"` // welcome, receipt, followup
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// ResendClient delivers mail via POST /emails.
type ResendClient struct {
	baseURL string
	apiKey  string
	from    string
	http    *http.Client
}

func NewResendClient(baseURL, apiKey, from string) *ResendClient {
	return &ResendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		from:    from,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// APIError is a non-2xx reply from the email provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("resend: status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func (c *ResendClient) Send(ctx context.Context, m Message) error {
	if m.To == "" {
		return errors.New("resend: empty recipient")
	}
	body, err := json.Marshal(resendRequest{
		From:    c.from,
		To:      []string{m.To},
		Subject: m.Subject,
		HTML:    m.HTML,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return nil
}

// LogSender logs messages instead of sending them; used when no API key is
// configured.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, m Message) error {
	s.Logger.Info("email not sent, no provider configured",
		zap.String("to", m.To),
		zap.String("kind", m.Kind),
		zap.String("subject", m.Subject))
	return nil
}
