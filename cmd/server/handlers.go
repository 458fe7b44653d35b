package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/p-n-ai/pai-planner/internal/calendar"
	"github.com/p-n-ai/pai-planner/internal/curriculum"
	"github.com/p-n-ai/pai-planner/internal/planner"
)

const (
	checkTimeout = 2 * time.Second
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type server struct {
	svc         *planner.Service
	checks      map[string]func(context.Context) error
	gatherer    prometheus.Gatherer
	horizonDays int
	startTime   string
	now         func() time.Time
}

// streamMessage is one websocket frame on /v1/plan/stream.
type streamMessage struct {
	Type     string       `json:"type"` // "row" or "done"
	Row      *planner.Row `json:"row,omitempty"`
	RunID    string       `json:"run_id,omitempty"`
	Entries  int          `json:"entries,omitempty"`
	Finished bool         `json:"finished,omitempty"`
}

// newMux creates the HTTP router with health, plan and metrics endpoints.
func newMux(s *server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.HandleFunc("GET /v1/plan", s.handlePlan)
	mux.HandleFunc("GET /v1/plan.xlsx", s.handlePlanXLSX)
	mux.HandleFunc("GET /v1/plan/stream", s.handlePlanStream)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := s.checks[name](ctx)
		cancel()
		if err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "check": name})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func (s *server) handlePlan(w http.ResponseWriter, r *http.Request) {
	res, ok := s.generate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handlePlanXLSX(w http.ResponseWriter, r *http.Request) {
	res, ok := s.generate(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="plan-%s-%s.xlsx"`, res.From, res.To))
	if err := planner.WriteXLSX(w, res.Rows); err != nil {
		slog.Error("failed to write workbook", "run_id", res.RunID, "error", err)
	}
}

// handlePlanStream generates the plan first so request errors surface as
// plain HTTP responses, then upgrades and sends one frame per row.
func (s *server) handlePlanStream(w http.ResponseWriter, r *http.Request) {
	res, ok := s.generate(w, r)
	if !ok {
		return
	}

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	for i := range res.Rows {
		if err := wsjson.Write(ctx, c, streamMessage{Type: "row", Row: &res.Rows[i]}); err != nil {
			slog.Warn("plan stream interrupted", "run_id", res.RunID, "sent", i, "error", err)
			return
		}
	}
	done := streamMessage{Type: "done", RunID: res.RunID, Entries: len(res.Rows), Finished: res.Finished}
	if err := wsjson.Write(ctx, c, done); err != nil {
		slog.Warn("plan stream interrupted", "run_id", res.RunID, "error", err)
		return
	}
	c.Close(websocket.StatusNormalClosure, "")
}

// generate resolves query defaults, runs the planner and writes any error
// response. It reports false when a response has already been written.
func (s *server) generate(w http.ResponseWriter, r *http.Request) (*planner.Result, bool) {
	req := s.requestFrom(r)

	res, err := s.svc.Generate(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, planner.ErrInvalidRequest):
			status = http.StatusBadRequest
		case errors.Is(err, curriculum.ErrInvalidSnapshot):
			status = http.StatusUnprocessableEntity
		default:
			slog.Error("plan generation failed", "error", err)
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return nil, false
	}
	return res, true
}

func (s *server) requestFrom(r *http.Request) planner.Request {
	q := r.URL.Query()
	req := planner.Request{
		From:      q.Get("from"),
		To:        q.Get("to"),
		StartTime: q.Get("start_time"),
	}
	if req.From == "" {
		req.From = s.now().Format(calendar.DateLayout)
		if req.StartTime == "" {
			req.StartTime = s.startTime
		}
	}
	if req.To == "" {
		if from, err := calendar.ParseDate(req.From); err == nil {
			req.To = from.AddDate(0, 0, s.horizonDays-1).Format(calendar.DateLayout)
		}
	}
	return req
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}
