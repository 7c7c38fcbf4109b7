package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// StatusError is returned when the email API answers with a non 2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("email api returned status %d: %s", e.StatusCode, e.Body)
}

// Permanent reports whether retrying err cannot succeed.
func Permanent(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode >= 400 && se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
}

// Client posts messages to a Resend compatible endpoint.
type Client struct {
	url    string
	apiKey string
	from   string
	http   *http.Client
}

func NewClient(url, apiKey, from string, timeout time.Duration) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		from:   from,
		http:   &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (c *Client) Send(ctx context.Context, m Message) error {
	body, err := json.Marshal(sendRequest{From: c.from, To: []string{m.To}, Subject: m.Subject, HTML: m.HTML})
	if err != nil {
		return fmt.Errorf("encoding email: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling email api: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(msg)}
}
