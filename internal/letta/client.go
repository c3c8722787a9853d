package letta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oculair/graphpoll/internal/config"
)

// Client wraps the Letta REST API.
type Client struct {
	apiBase    string
	password   string
	pageLimit  int
	httpClient *http.Client
}

// NewClient creates a client for the given server. The API lives under the
// /v1 prefix of the configured base URL.
func NewClient(cfg config.LettaConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := cfg.PageLimit
	if limit <= 0 {
		limit = 100
	}
	return &Client{
		apiBase:   strings.TrimRight(cfg.BaseURL, "/") + "/v1",
		password:  cfg.Password,
		pageLimit: limit,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// apiError captures a non-2xx response so callers can branch on the status.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

// ListAgents retrieves the full agent directory, paging forward with the
// last agent ID until a short or empty page.
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	var agents []Agent
	after := ""
	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(c.pageLimit))
		if after != "" {
			q.Set("after", after)
		}
		var batch []Agent
		if err := c.get(ctx, "/agents/", q, &batch); err != nil {
			return nil, fmt.Errorf("list agents: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		agents = append(agents, batch...)
		if len(batch) < c.pageLimit {
			break
		}
		after = batch[len(batch)-1].ID
	}
	return agents, nil
}

// AdminUsers retrieves the admin user directory keyed by user ID. The
// endpoint is not paginated.
func (c *Client) AdminUsers(ctx context.Context) (map[string]User, error) {
	var users []User
	if err := c.get(ctx, "/admin/users/", nil, &users); err != nil {
		return nil, fmt.Errorf("admin users: %w", err)
	}
	userMap := make(map[string]User, len(users))
	for _, u := range users {
		if u.ID != "" {
			userMap[u.ID] = u
		}
	}
	return userMap, nil
}

// Messages retrieves all messages for an agent newer than the given cursor,
// oldest first. The cursor is an exclusive lower bound; paging continues
// with the last message ID of each page until a short or empty page.
//
// If the very first request fails with 404 the stored cursor is assumed to
// reference a deleted message, and that one request is retried without the
// cursor, replaying from the beginning of retained history. A 404 on any
// later page is an error like any other.
func (c *Client) Messages(ctx context.Context, agentID, after string) ([]RawMessage, error) {
	var messages []RawMessage
	cursor := after
	firstRequest := true
	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(c.pageLimit))
		q.Set("order", "asc")
		q.Set("use_assistant_message", "false")
		if cursor != "" {
			q.Set("after", cursor)
		}
		var batch []RawMessage
		if err := c.get(ctx, "/agents/"+agentID+"/messages", q, &batch); err != nil {
			var apiErr *apiError
			if firstRequest && cursor != "" && errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
				slog.Warn("Stored message cursor not found, replaying without cursor",
					"agent_id", agentID, "cursor", cursor)
				firstRequest = false
				cursor = ""
				continue
			}
			return nil, fmt.Errorf("messages for agent %s: %w", agentID, err)
		}
		firstRequest = false
		if len(batch) == 0 {
			break
		}
		messages = append(messages, batch...)
		if len(batch) < c.pageLimit {
			break
		}
		cursor = batch[len(batch)-1].ID
	}
	return messages, nil
}

// Agent fetches the full directory record for a single agent.
func (c *Client) Agent(ctx context.Context, agentID string) (*Agent, error) {
	var agent Agent
	if err := c.get(ctx, "/agents/"+agentID, nil, &agent); err != nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, err)
	}
	return &agent, nil
}

// Identity fetches a single identity record.
func (c *Client) Identity(ctx context.Context, identityID string) (*Identity, error) {
	var identity Identity
	if err := c.get(ctx, "/identities/"+identityID, nil, &identity); err != nil {
		return nil, fmt.Errorf("identity %s: %w", identityID, err)
	}
	return &identity, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.apiBase + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	// The server accepts the shared secret in either form depending on
	// version; send both.
	req.Header.Set("X-BARE-PASSWORD", "password "+c.password)
	req.Header.Set("Authorization", "Bearer "+c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apiError{Status: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
