// Package graphiti wraps the Graphiti knowledge-graph ingestion API.
package graphiti

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Envelope is one normalized message episode as the ingestion endpoint
// expects it.
type Envelope struct {
	Content           string `json:"content"`
	Name              string `json:"name"`
	RoleType          string `json:"role_type"`
	Role              string `json:"role"`
	Timestamp         string `json:"timestamp"`
	SourceDescription string `json:"source_description"`
}

// Client posts message batches to a Graphiti ingestion endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates an ingestion client for the given endpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// addMessagesRequest is the wire body for POST /messages.
type addMessagesRequest struct {
	GroupID  string     `json:"group_id"`
	Messages []Envelope `json:"messages"`
}

// AddMessages sends one batch of envelopes for the given group (the agent
// ID). The endpoint acknowledges accepted batches with HTTP 202; any other
// status is an error.
func (c *Client) AddMessages(ctx context.Context, groupID string, messages []Envelope) error {
	payload, err := json.Marshal(addMessagesRequest{GroupID: groupID, Messages: messages})
	if err != nil {
		return fmt.Errorf("add messages: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("add messages: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Info("Sending messages to Graphiti", "group_id", groupID, "count", len(messages))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("add messages: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("add messages: read response: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("add messages: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
