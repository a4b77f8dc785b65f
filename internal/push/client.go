// Package push delivers best-effort remote notifications to a stored
// device token over the FCM HTTP API.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultEndpoint is the hosted FCM send endpoint.
const DefaultEndpoint = "https://fcm.googleapis.com/fcm/send"

// ErrInvalidToken marks a destination token the service reports as
// invalid or no longer registered. The caller is expected to prune it.
var ErrInvalidToken = errors.New("push token invalid or unregistered")

// Client posts notification payloads to the delivery endpoint.
type Client struct {
	endpoint  string
	serverKey string
	httpc     *http.Client
	logger    *zap.Logger
}

// New creates a Client. An empty endpoint selects the hosted service.
func New(endpoint, serverKey string, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:  endpoint,
		serverKey: serverKey,
		httpc:     &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

type sendRequest struct {
	To           string            `json:"to"`
	Notification sendNotification  `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type sendNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type sendResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

// Send delivers one notification. The returned error is ErrInvalidToken
// when the destination should be removed, any other non-nil error for
// transient delivery trouble.
func (c *Client) Send(ctx context.Context, token, title, body string) error {
	payload, err := json.Marshal(sendRequest{
		To:           token,
		Notification: sendNotification{Title: title, Body: body},
		Data:         map[string]string{"type": "prayer_reminder"},
	})
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("push endpoint status %d", resp.StatusCode)
	}

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode push response: %w", err)
	}
	if result.Failure == 0 {
		return nil
	}

	for _, r := range result.Results {
		switch r.Error {
		case "InvalidRegistration", "NotRegistered", "MismatchSenderId":
			return ErrInvalidToken
		}
	}
	return fmt.Errorf("push rejected: %s", firstError(result))
}

func firstError(r sendResponse) string {
	for _, res := range r.Results {
		if res.Error != "" {
			return res.Error
		}
	}
	return "unknown error"
}
