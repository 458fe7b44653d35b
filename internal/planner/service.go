package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-planner/internal/calendar"
	"github.com/p-n-ai/pai-planner/internal/curriculum"
	"github.com/p-n-ai/pai-planner/internal/graph"
	"github.com/p-n-ai/pai-planner/internal/platform/cache"
)

const defaultCacheTTL = 10 * time.Minute

// PlanCache stores generated results keyed by snapshot and request.
type PlanCache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// ServiceConfig holds dependencies for the plan service.
type ServiceConfig struct {
	Store    curriculum.Store
	Cache    PlanCache     // optional
	CacheTTL time.Duration // default 10m
	Events   EventLogger   // default NopEventLogger
	Metrics  *Metrics      // default private registry
}

// Service generates study plans from the current curriculum snapshot.
type Service struct {
	store    curriculum.Store
	cache    PlanCache
	cacheTTL time.Duration
	events   EventLogger
	metrics  *Metrics
}

// Result is a generated plan together with its display rows.
type Result struct {
	RunID    string  `json:"run_id"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Entries  []Entry `json:"entries"`
	Rows     []Row   `json:"rows"`
	Segments int     `json:"segments"`
	Wasted   int     `json:"wasted_segments"`
	Finished bool    `json:"finished"`
	Dropped  int     `json:"dropped_records"`
	Cached   bool    `json:"cached"`
}

// NewService creates a plan service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("curriculum store is required")
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Service{
		store:    cfg.Store,
		cache:    cfg.Cache,
		cacheTTL: ttl,
		events:   events,
		metrics:  metrics,
	}, nil
}

// Generate builds a plan for req from a fresh snapshot. Identical snapshots
// and requests are served from the cache when one is configured.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()

	res, err := s.generate(ctx, runID, req)
	if err != nil {
		s.metrics.Runs.WithLabelValues("error").Inc()
		s.logEvent(runID, EventPlanFailed, map[string]any{"error": err.Error()})
		return nil, err
	}
	return res, nil
}

func (s *Service) generate(ctx context.Context, runID string, req Request) (*Result, error) {
	b, err := req.parse()
	if err != nil {
		return nil, err
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading curriculum: %w", err)
	}
	if err := curriculum.Validate(snap); err != nil {
		return nil, err
	}

	key, err := planKey(snap, req)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.lookup(ctx, key); ok {
		cached.RunID = runID
		cached.Cached = true
		s.metrics.Runs.WithLabelValues("cached").Inc()
		s.logEvent(runID, EventPlanCached, map[string]any{"entries": len(cached.Entries)})
		return cached, nil
	}

	start := time.Now()

	pattern, err := calendar.ParsePattern(snap.Weekly, snap.Overrides)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", curriculum.ErrInvalidSnapshot, err)
	}
	windows := calendar.Project(b.from, b.to, pattern)
	if b.hasStart {
		windows = calendar.TrimBefore(windows, b.from, b.start, SegmentMinutes)
	}

	g := graph.Build(snap)
	stats := g.Stats()
	plan := Schedule(g, windows)

	res := &Result{
		RunID:    runID,
		From:     req.From,
		To:       req.To,
		Entries:  plan.Entries,
		Rows:     Format(g, plan.Entries),
		Segments: plan.Segments,
		Wasted:   plan.Wasted,
		Finished: plan.Finished,
		Dropped:  stats.Dropped,
	}
	if res.Entries == nil {
		res.Entries = []Entry{}
	}

	elapsed := time.Since(start)
	s.metrics.Runs.WithLabelValues("generated").Inc()
	s.metrics.Duration.Observe(elapsed.Seconds())
	s.metrics.Entries.Observe(float64(len(res.Entries)))
	s.metrics.WastedSegments.Add(float64(plan.Wasted))
	s.metrics.DroppedRecords.Add(float64(stats.Dropped))

	slog.Info("plan generated",
		"run_id", runID,
		"from", req.From,
		"to", req.To,
		"entries", len(res.Entries),
		"segments", plan.Segments,
		"wasted_segments", plan.Wasted,
		"finished", plan.Finished,
		"duration_ms", elapsed.Milliseconds(),
	)

	s.save(ctx, key, res)
	s.logEvent(runID, EventPlanGenerated, map[string]any{
		"from":            req.From,
		"to":              req.To,
		"entries":         len(res.Entries),
		"wasted_segments": plan.Wasted,
		"finished":        plan.Finished,
	})
	return res, nil
}

func (s *Service) lookup(ctx context.Context, key string) (*Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	var res Result
	ok, err := s.cache.GetJSON(ctx, key, &res)
	if err != nil {
		slog.Warn("plan cache read failed", "error", err)
		return nil, false
	}
	return &res, ok
}

func (s *Service) save(ctx context.Context, key string, res *Result) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, res, s.cacheTTL); err != nil {
		slog.Warn("plan cache write failed", "error", err)
	}
}

func (s *Service) logEvent(runID, eventType string, data map[string]any) {
	if err := s.events.LogEvent(Event{RunID: runID, EventType: eventType, Data: data}); err != nil {
		slog.Warn("failed to log event", "type", eventType, "error", err)
	}
}

func planKey(snap *curriculum.Snapshot, req Request) (string, error) {
	rawSnap, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	rawReq, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}
	return cache.Key("plan", rawSnap, rawReq), nil
}
