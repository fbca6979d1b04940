// Package remote is the typed HTTP contract to the AI-calling backend.
// The client is stateless: no caching, no retries. Reconciliation decides
// what to do with failures.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/teeline/teeline/internal/domain"
)

// Client talks to the call-placement backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a backend client. timeout bounds each request; the
// backend itself can take a while when it fans out to the voice provider.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// ServiceError is a non-2xx response from the backend. Detail carries the
// server-provided message when the body had one.
type ServiceError struct {
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend error %d", e.StatusCode)
}

// AIAgentCallRequest is the booking intent sent when placing an AI call.
type AIAgentCallRequest struct {
	PhoneNumber string `json:"phone_number"`
	BookingDate string `json:"booking_date"`
	BookingTime string `json:"booking_time"`
	NumPlayers  int    `json:"num_players"`
	PlayerName  string `json:"player_name"`
}

// CallStatusResponse is the backend's view of a call. Returned by create,
// poll and refresh alike.
type CallStatusResponse struct {
	ID               int64             `json:"id"`
	PhoneNumber      string            `json:"phone_number"`
	Status           domain.CallStatus `json:"status"`
	VapiCallID       string            `json:"vapi_call_id"`
	Transcript       string            `json:"transcript"`
	BookingConfirmed *bool             `json:"booking_confirmed"`
	AISummary        string            `json:"ai_summary"`
}

// SyncPayload mirrors a locally created manual call to the backend.
type SyncPayload struct {
	PhoneNumber   string `json:"phone_number"`
	ContactName   string `json:"contact_name,omitempty"`
	ScheduledTime int64  `json:"scheduled_time"`
	Status        string `json:"status"`
}

// CreateAIAgentCall asks the backend to place an outbound AI call.
// NOT idempotent: every invocation dials a real phone. Call at most once
// per call task.
func (c *Client) CreateAIAgentCall(ctx context.Context, req AIAgentCallRequest) (*CallStatusResponse, error) {
	var resp CallStatusResponse
	if err := c.do(ctx, http.MethodPost, "/calls/ai-agent", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PollStatus reads the backend's current view of a call by external id.
// Safe to retry.
func (c *Client) PollStatus(ctx context.Context, vapiCallID string) (*CallStatusResponse, error) {
	var resp CallStatusResponse
	path := "/calls/vapi/" + url.PathEscape(vapiCallID) + "/status"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh tells the backend to re-fetch authoritative state from the voice
// provider before answering. Used when a call looks finished but transcript
// data has not synced yet. Safe to retry.
func (c *Client) Refresh(ctx context.Context, vapiCallID string) (*CallStatusResponse, error) {
	var resp CallStatusResponse
	path := "/calls/vapi/" + url.PathEscape(vapiCallID) + "/refresh"
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SyncCall mirrors a manual call record to the backend. Best effort: the
// local store is the source of truth and callers ignore the returned error.
func (c *Client) SyncCall(ctx context.Context, p SyncPayload) error {
	return c.do(ctx, http.MethodPost, "/calls", p, nil)
}

// ListCalls fetches the backend's call list. Best-effort mirror; returns an
// empty slice on any failure.
func (c *Client) ListCalls(ctx context.Context) []CallStatusResponse {
	var calls []CallStatusResponse
	if err := c.do(ctx, http.MethodGet, "/calls", nil, &calls); err != nil {
		return nil
	}
	return calls
}

// do performs one JSON request. Non-2xx responses become *ServiceError,
// decoding the FastAPI-style {"detail": ...} body when present.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		svcErr := &ServiceError{StatusCode: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&detail); err == nil {
			svcErr.Detail = detail.Detail
		}
		return svcErr
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
