package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"leadfunnel/internal/model"
)

// WebhookClient forwards completed submissions to a remote function
// (welcome email, CRM sync) hosted on the backend platform.
type WebhookClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewWebhookClient creates a new webhook client
func NewWebhookClient(endpoint, apiKey string) *WebhookClient {
	if apiKey == "" {
		log.Println("Warning: SUBMIT_API_KEY not set, webhook calls are unauthenticated")
	}
	return &WebhookClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Notify posts sub as JSON. Any non-2xx status is an error.
func (c *WebhookClient) Notify(ctx context.Context, sub *model.Submission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	log.Printf("[Webhook] POST %s (session %s)", c.endpoint, sub.SessionID)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
