// Package api provides the local HTTP surface consumed by the dashboard UI.
// It is a thin layer over the coordinator and the store; all state lives in
// the store.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teeline/teeline/internal/app/coordinator"
	"github.com/teeline/teeline/internal/app/reconcile"
	"github.com/teeline/teeline/internal/domain"
	"github.com/teeline/teeline/internal/infra/remote"
	"github.com/teeline/teeline/internal/infra/sqlite"
)

// Server is the teeline HTTP API server.
type Server struct {
	db             *sqlite.DB
	remote         *remote.Client
	coord          *coordinator.Coordinator
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(db *sqlite.DB, client *remote.Client, coord *coordinator.Coordinator) *Server {
	return &Server{db: db, remote: client, coord: coord}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.Ping(); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/calls", s.handleListCalls)
		r.Post("/calls", s.handleCreateCall)
		r.Post("/calls/ai-agent", s.handleCreateAIAgentCall)
		r.Get("/calls/{id}", s.handleGetCall)
		r.Post("/calls/{id}/cancel", s.handleCancelCall)
		r.Post("/calls/{id}/refresh", s.handleRefreshCall)
		r.Delete("/calls/{id}", s.handleDeleteCall)
		r.Post("/sync", s.handleSync)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Handlers ───────────────────────────────────────────────────────────────

func (s *Server) handleListCalls(w http.ResponseWriter, r *http.Request) {
	calls, err := s.db.ListCalls()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if calls == nil {
		calls = []domain.Call{}
	}
	writeJSON(w, http.StatusOK, calls)
}

// createCallRequest creates a manual call. Omitting scheduled_time (or
// passing 0) means "call now".
type createCallRequest struct {
	PhoneNumber   string `json:"phone_number"`
	ContactName   string `json:"contact_name"`
	ScheduledTime int64  `json:"scheduled_time"`
}

func (s *Server) handleCreateCall(w http.ResponseWriter, r *http.Request) {
	var req createCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "phone_number is required")
		return
	}

	var id int64
	var err error
	if req.ScheduledTime == 0 {
		id, err = s.coord.AddCall(r.Context(), req.PhoneNumber, req.ContactName)
	} else {
		id, err = s.coord.AddScheduledCall(r.Context(), req.PhoneNumber, req.ContactName, req.ScheduledTime)
	}
	if err != nil {
		if errors.Is(err, domain.ErrScheduleInPast) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// The row may exist even when the dial failed; report both.
		writeCallOrError(w, s.db, id, err)
		return
	}
	s.writeCall(w, http.StatusCreated, id)
}

type createAIAgentCallRequest struct {
	PhoneNumber   string `json:"phone_number"`
	BookingDate   string `json:"booking_date"`
	BookingTime   string `json:"booking_time"`
	NumPlayers    int    `json:"num_players"`
	PlayerName    string `json:"player_name"`
	ScheduledTime int64  `json:"scheduled_time"`
}

func (s *Server) handleCreateAIAgentCall(w http.ResponseWriter, r *http.Request) {
	var req createAIAgentCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "phone_number is required")
		return
	}

	var id int64
	var err error
	if req.ScheduledTime == 0 {
		id, err = s.coord.AddAIAgentCall(r.Context(),
			req.PhoneNumber, req.BookingDate, req.BookingTime, req.NumPlayers, req.PlayerName)
	} else {
		id, err = s.coord.AddScheduledAIAgentCall(r.Context(),
			req.PhoneNumber, req.BookingDate, req.BookingTime, req.NumPlayers, req.PlayerName, req.ScheduledTime)
	}
	if err != nil {
		if errors.Is(err, domain.ErrScheduleInPast) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeCallOrError(w, s.db, id, err)
		return
	}
	s.writeCall(w, http.StatusCreated, id)
}

func (s *Server) handleGetCall(w http.ResponseWriter, r *http.Request) {
	id, ok := callID(w, r)
	if !ok {
		return
	}
	s.writeCall(w, http.StatusOK, id)
}

func (s *Server) handleCancelCall(w http.ResponseWriter, r *http.Request) {
	id, ok := callID(w, r)
	if !ok {
		return
	}
	if err := s.coord.Cancel(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrCallNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, domain.ErrNotCancellable):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.writeCall(w, http.StatusOK, id)
}

func (s *Server) handleRefreshCall(w http.ResponseWriter, r *http.Request) {
	id, ok := callID(w, r)
	if !ok {
		return
	}
	call, err := s.coord.RefreshCall(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCallNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, domain.ErrNoExternalID):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, call)
}

func (s *Server) handleDeleteCall(w http.ResponseWriter, r *http.Request) {
	id, ok := callID(w, r)
	if !ok {
		return
	}
	if err := s.coord.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	updated, err := reconcile.Sweep(r.Context(), s.db, s.remote)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func callID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid call id")
		return 0, false
	}
	return id, true
}

func (s *Server) writeCall(w http.ResponseWriter, status int, id int64) {
	call, err := s.db.GetCall(id)
	if err != nil {
		if errors.Is(err, domain.ErrCallNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, status, call)
}

// writeCallOrError reports a failed placement whose row still exists: the
// call body rides along with the error message so the UI can show both.
func writeCallOrError(w http.ResponseWriter, db *sqlite.DB, id int64, opErr error) {
	call, err := db.GetCall(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, opErr.Error())
		return
	}
	writeJSON(w, http.StatusBadGateway, map[string]any{
		"call": call,
		"error": map[string]any{
			"message": opErr.Error(),
			"type":    "error",
		},
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for the local dashboard.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
