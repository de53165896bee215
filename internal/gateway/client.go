package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ChatRecord is one persisted query/response exchange
type ChatRecord struct {
	Query    string
	Response string
	Date     time.Time
	OwnerID  string
}

// BlockedUser is one entry of the server-side block list
type BlockedUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Client talks to the email-assistant backend over HTTP/JSON
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a gateway client for the given base URL.
// The HTTP client carries no timeout; request lifetime is bounded only by the
// caller's context.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
	}
}

type promptRequest struct {
	Question string `json:"question"`
	UserID   string `json:"userId"`
	Context  string `json:"context"`
}

type promptResponse struct {
	Message string `json:"message"`
}

type historyRequest struct {
	UserID string `json:"userId"`
}

type historyResponse struct {
	Success bool             `json:"success"`
	Message []chatRecordWire `json:"message"`
}

type chatRecordWire struct {
	Query    string `json:"query"`
	Response string `json:"response"`
	Date     string `json:"date"`
}

type blockListResponse struct {
	Success bool          `json:"success"`
	Message []BlockedUser `json:"message"`
}

type syncResponse struct {
	Success bool `json:"success"`
}

// SubmitQuery sends a question to the assistant and returns its answer.
// contextText carries the text of the previous assistant turn, empty if none.
func (c *Client) SubmitQuery(ctx context.Context, question, userID, contextText string) (string, error) {
	var resp promptResponse
	req := promptRequest{Question: question, UserID: userID, Context: contextText}
	if err := c.postJSON(ctx, "/prompt", req, &resp); err != nil {
		return "", fmt.Errorf("submit query: %w", err)
	}
	return resp.Message, nil
}

// FetchHistory returns all persisted exchanges for the given user
func (c *Client) FetchHistory(ctx context.Context, userID string) ([]ChatRecord, error) {
	var resp historyResponse
	req := historyRequest{UserID: userID}
	if err := c.postJSON(ctx, "/get_chat_history", req, &resp); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("fetch history: server reported failure")
	}

	records := make([]ChatRecord, 0, len(resp.Message))
	for _, w := range resp.Message {
		date, err := ParseRecordDate(w.Date)
		if err != nil {
			// Keep the record; an unparseable date sorts last rather than
			// dropping the exchange.
			date = time.Time{}
		}
		records = append(records, ChatRecord{
			Query:    w.Query,
			Response: w.Response,
			Date:     date,
			OwnerID:  userID,
		})
	}
	return records, nil
}

// FetchBlockStatus returns the full server-side block list
func (c *Client) FetchBlockStatus(ctx context.Context) ([]BlockedUser, error) {
	var resp blockListResponse
	if err := c.getJSON(ctx, "/get_blocked_user", &resp); err != nil {
		return nil, fmt.Errorf("fetch block status: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("fetch block status: server reported failure")
	}
	return resp.Message, nil
}

// TriggerEmailSync asks the backend to re-index the user's mailbox
func (c *Client) TriggerEmailSync(ctx context.Context) error {
	var resp syncResponse
	if err := c.getJSON(ctx, "/sync_email", &resp); err != nil {
		return fmt.Errorf("trigger email sync: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("trigger email sync: server reported failure")
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// recordDateLayouts are the formats the backend has been seen emitting
var recordDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseRecordDate normalizes a wire date string into a time.Time
func ParseRecordDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range recordDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}
