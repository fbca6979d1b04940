package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/teeline/teeline/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestCreateAIAgentCall(t *testing.T) {
	var gotBody AIAgentCallRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/calls/ai-agent" {
			t.Errorf("request = %s %s, want POST /calls/ai-agent", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id": 17, "vapi_call_id": "v1", "status": "IN_PROGRESS",
		})
	})

	resp, err := client.CreateAIAgentCall(context.Background(), AIAgentCallRequest{
		PhoneNumber: "+14254658948",
		BookingDate: "Monday, January 5, 2026",
		BookingTime: "2:00 PM",
		NumPlayers:  2,
		PlayerName:  "Guest",
	})
	if err != nil {
		t.Fatalf("CreateAIAgentCall() error: %v", err)
	}
	if resp.VapiCallID != "v1" || resp.Status != domain.StatusInProgress {
		t.Errorf("resp = %+v, want vapi_call_id=v1 status=IN_PROGRESS", resp)
	}
	if gotBody.NumPlayers != 2 || gotBody.PhoneNumber != "+14254658948" {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestCreateAIAgentCall_ServiceErrorWithDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Vapi API error: no trunk"})
	})

	_, err := client.CreateAIAgentCall(context.Background(), AIAgentCallRequest{})
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error = %v, want *ServiceError", err)
	}
	if svcErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", svcErr.StatusCode)
	}
	if svcErr.Detail != "Vapi API error: no trunk" {
		t.Errorf("Detail = %q", svcErr.Detail)
	}
}

func TestPollStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/calls/vapi/v1/status" {
			t.Errorf("request = %s %s, want GET /calls/vapi/v1/status", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "COMPLETED", "vapi_call_id": "v1",
			"transcript": "hello", "booking_confirmed": true, "ai_summary": "Booked",
		})
	})

	resp, err := client.PollStatus(context.Background(), "v1")
	if err != nil {
		t.Fatalf("PollStatus() error: %v", err)
	}
	if resp.Status != domain.StatusCompleted || resp.Transcript != "hello" || resp.AISummary != "Booked" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.BookingConfirmed == nil || !*resp.BookingConfirmed {
		t.Error("BookingConfirmed should decode to true")
	}
}

func TestPollStatus_InProgressLeavesResultFieldsNull(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "IN_PROGRESS", "vapi_call_id": "v1"})
	})

	resp, err := client.PollStatus(context.Background(), "v1")
	if err != nil {
		t.Fatalf("PollStatus() error: %v", err)
	}
	if resp.BookingConfirmed != nil {
		t.Error("BookingConfirmed should be nil when omitted")
	}
	if resp.Transcript != "" {
		t.Errorf("Transcript = %q, want empty", resp.Transcript)
	}
}

func TestRefresh(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/calls/vapi/v1/refresh" {
			t.Errorf("request = %s %s, want POST /calls/vapi/v1/refresh", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "IN_PROGRESS", "vapi_call_id": "v1"})
	})

	if _, err := client.Refresh(context.Background(), "v1"); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
}

func TestPollStatus_NoDetailBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	})

	_, err := client.PollStatus(context.Background(), "v1")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error = %v, want *ServiceError", err)
	}
	if svcErr.StatusCode != http.StatusGatewayTimeout || svcErr.Detail != "" {
		t.Errorf("ServiceError = %+v", svcErr)
	}
}

func TestSyncCall(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusCreated)
	})

	err := client.SyncCall(context.Background(), SyncPayload{
		PhoneNumber: "+1", ScheduledTime: 100, Status: "COMPLETED",
	})
	if err != nil {
		t.Fatalf("SyncCall() error: %v", err)
	}
	if gotPath != "POST /calls" {
		t.Errorf("request = %q, want POST /calls", gotPath)
	}
}

func TestListCalls_BestEffort(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond) // unreachable
	if calls := client.ListCalls(context.Background()); len(calls) != 0 {
		t.Errorf("ListCalls() on dead backend = %v, want empty", calls)
	}
}

func TestNetworkErrorIsNotServiceError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := client.PollStatus(context.Background(), "v1")
	if err == nil {
		t.Fatal("expected error for unreachable backend")
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		t.Error("network failures should not be ServiceError")
	}
}
