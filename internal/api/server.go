// Package api exposes the economy sentinel over HTTP: ledger mutations,
// admin action validation, population scans, and per-user healing.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/adminrules"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/domain"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/heal"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/ledger"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/sentinel"
)

// Server is the sentinel HTTP API server.
type Server struct {
	store    domain.Store
	ledger   *ledger.Core
	monitor  *adminrules.Monitor
	sentinel *sentinel.Sentinel
	reporter sentinel.Reporter
	healer   *heal.Healer
	registry *prometheus.Registry // nil disables /metrics
}

// NewServer creates an API server over the assembled subsystems.
func NewServer(store domain.Store, core *ledger.Core, monitor *adminrules.Monitor,
	sent *sentinel.Sentinel, healer *heal.Healer) *Server {
	return &Server{
		store:    store,
		ledger:   core,
		monitor:  monitor,
		sentinel: sent,
		healer:   healer,
	}
}

// EnableMetrics exposes reg on /metrics.
func (s *Server) EnableMetrics(reg *prometheus.Registry) { s.registry = reg }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ledger/apply", s.handleLedgerApply)
		r.Post("/admin/validate", s.handleAdminValidate)
		r.Get("/scan", s.handleScan)
		r.Get("/scan/report", s.handleScanReport)
		r.Get("/scan/alerts", s.handleScanAlerts)
		r.Post("/heal/{userID}", s.handleHeal)
	})

	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	return r
}

// ─── Ledger ─────────────────────────────────────────────────────────────────

type applyRequest struct {
	UserID         string  `json:"user_id"`
	Kind           string  `json:"kind"`
	Delta          float64 `json:"delta"`
	Source         string  `json:"source"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

type applyResponse struct {
	UserID    string `json:"user_id"`
	Kind      string `json:"kind"`
	Previous  int64  `json:"previous"`
	New       int64  `json:"new"`
	Signature string `json:"signature"`
}

func (s *Server) handleLedgerApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	res, err := s.ledger.ApplyWithKey(req.UserID, domain.ValueKind(req.Kind),
		req.Delta, req.Source, req.IdempotencyKey)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, applyResponse{
		UserID:    req.UserID,
		Kind:      req.Kind,
		Previous:  res.Previous,
		New:       res.New,
		Signature: res.Signature,
	})
}

// statusFor maps ledger errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLockConflict), errors.Is(err, domain.ErrReplayDetected):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidKind):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ─── Admin validation ───────────────────────────────────────────────────────

type validateResponse struct {
	Rule     string `json:"rule"`
	Passed   bool   `json:"passed"`
	Severity string `json:"severity,omitempty"`
	Details  string `json:"details,omitempty"`
	Blocked  bool   `json:"blocked"`
}

func (s *Server) handleAdminValidate(w http.ResponseWriter, r *http.Request) {
	var action adminrules.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	// Queue rules validate against the live snapshot.
	if action.Kind == adminrules.ActionQueue {
		queue, err := s.store.ListQueue()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "load queue: "+err.Error())
			return
		}
		action.Queue = queue
	}

	result, err := s.monitor.Validate(action)
	resp := validateResponse{
		Rule:     result.Rule,
		Passed:   result.Passed,
		Severity: string(result.Severity),
		Details:  result.Details,
		Blocked:  err != nil,
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

// ─── Scans ──────────────────────────────────────────────────────────────────

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	result, err := s.sentinel.RunFullScan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleScanReport(w http.ResponseWriter, r *http.Request) {
	result, err := s.sentinel.RunFullScan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.reporter.HealthReport(result))
}

func (s *Server) handleScanAlerts(w http.ResponseWriter, r *http.Request) {
	result, err := s.sentinel.RunFullScan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	alerts := s.reporter.CriticalAlerts(result)
	if alerts == nil {
		alerts = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// ─── Heal ───────────────────────────────────────────────────────────────────

type healResponse struct {
	UserID string     `json:"user_id"`
	Fixes  []heal.Fix `json:"fixes"`
}

func (s *Server) handleHeal(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	u, err := s.store.GetUser(userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found: "+userID)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	repaired, fixes := s.healer.ApplyAll(*u)
	if len(fixes) > 0 {
		if err := s.store.UpdateUser(repaired); err != nil {
			writeError(w, http.StatusInternalServerError, "persist repairs: "+err.Error())
			return
		}
	}
	if fixes == nil {
		fixes = []heal.Fix{}
	}
	writeJSON(w, http.StatusOK, healResponse{UserID: userID, Fixes: fixes})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

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
