package planner_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/p-n-ai/pai-planner/internal/curriculum"
	"github.com/p-n-ai/pai-planner/internal/planner"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	c.sets++
	return nil
}

type failingStore struct{}

func (failingStore) Snapshot(context.Context) (*curriculum.Snapshot, error) {
	return nil, errors.New("connection refused")
}

func serviceSnapshot() curriculum.Snapshot {
	snap := singleNote(1.0)
	snap.Weekly = []curriculum.WeeklyWindow{{Weekday: 0, Start: "09:00", End: "11:00"}}
	return *snap
}

func newTestService(t *testing.T, store curriculum.Store, c planner.PlanCache) (*planner.Service, *planner.MemoryEventLogger, *planner.Metrics) {
	t.Helper()
	events := planner.NewMemoryEventLogger()
	metrics := planner.NewMetrics(prometheus.NewRegistry())
	svc, err := planner.NewService(planner.ServiceConfig{
		Store:   store,
		Cache:   c,
		Events:  events,
		Metrics: metrics,
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, events, metrics
}

func TestNewService_RequiresStore(t *testing.T) {
	if _, err := planner.NewService(planner.ServiceConfig{}); err == nil {
		t.Fatal("NewService() expected error without a store")
	}
}

func TestService_Generate(t *testing.T) {
	svc, events, metrics := newTestService(t, curriculum.NewMemoryStore(serviceSnapshot()), nil)

	res, err := svc.Generate(t.Context(), planner.Request{From: "2025-08-04", To: "2025-08-10"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(res.Entries) != 2 || len(res.Rows) != 2 {
		t.Fatalf("got %d entries, %d rows; want 2 and 2", len(res.Entries), len(res.Rows))
	}
	if !res.Finished || res.Cached {
		t.Errorf("finished = %v, cached = %v; want true, false", res.Finished, res.Cached)
	}
	if res.Segments != 4 {
		t.Errorf("Segments = %d, want 4", res.Segments)
	}
	if res.RunID == "" {
		t.Error("RunID should be set")
	}

	got := events.Events()
	if len(got) != 1 || got[0].EventType != planner.EventPlanGenerated || got[0].RunID != res.RunID {
		t.Errorf("events = %+v, want one plan_generated for run %s", got, res.RunID)
	}
	if v := testutil.ToFloat64(metrics.Runs.WithLabelValues("generated")); v != 1 {
		t.Errorf("runs_total{outcome=generated} = %v, want 1", v)
	}
}

func TestService_Generate_StartTimeTrimsFirstDay(t *testing.T) {
	svc, _, _ := newTestService(t, curriculum.NewMemoryStore(serviceSnapshot()), nil)

	res, err := svc.Generate(t.Context(), planner.Request{From: "2025-08-04", To: "2025-08-04", StartTime: "09:40"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(res.Entries) == 0 || res.Entries[0].Start != "10:00" {
		t.Fatalf("entries = %+v, want the first session at 10:00", res.Entries)
	}
	if res.Segments != 2 {
		t.Errorf("Segments = %d, want 2", res.Segments)
	}
}

func TestService_Generate_UsesCache(t *testing.T) {
	store := curriculum.NewMemoryStore(serviceSnapshot())
	c := newMemoryCache()
	svc, events, metrics := newTestService(t, store, c)
	req := planner.Request{From: "2025-08-04", To: "2025-08-10"}

	first, err := svc.Generate(t.Context(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second, err := svc.Generate(t.Context(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !second.Cached {
		t.Error("second result should come from the cache")
	}
	if second.RunID == first.RunID {
		t.Error("cached result should carry a new run id")
	}
	if len(second.Entries) != len(first.Entries) {
		t.Errorf("cached entries = %d, want %d", len(second.Entries), len(first.Entries))
	}
	if c.sets != 1 {
		t.Errorf("cache sets = %d, want 1", c.sets)
	}
	if v := testutil.ToFloat64(metrics.Runs.WithLabelValues("cached")); v != 1 {
		t.Errorf("runs_total{outcome=cached} = %v, want 1", v)
	}

	// A changed snapshot misses the cache.
	changed := serviceSnapshot()
	changed.Inputs[0].RequiredHours = 0.5
	store.Replace(changed)

	third, err := svc.Generate(t.Context(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if third.Cached || len(third.Entries) != 1 {
		t.Errorf("third = {cached %v, entries %d}, want fresh plan with 1 entry", third.Cached, len(third.Entries))
	}

	types := []string{}
	for _, e := range events.Events() {
		types = append(types, e.EventType)
	}
	want := []string{planner.EventPlanGenerated, planner.EventPlanCached, planner.EventPlanGenerated}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, types[i], want[i])
		}
	}
}

func TestService_Generate_Errors(t *testing.T) {
	invalid := serviceSnapshot()
	invalid.Exams[0].Priority = 12

	tests := []struct {
		name   string
		store  curriculum.Store
		req    planner.Request
		target error
	}{
		{"invalid request", curriculum.NewMemoryStore(serviceSnapshot()), planner.Request{From: "tomorrow", To: "2025-08-10"}, planner.ErrInvalidRequest},
		{"invalid snapshot", curriculum.NewMemoryStore(invalid), planner.Request{From: "2025-08-04", To: "2025-08-10"}, curriculum.ErrInvalidSnapshot},
		{"store failure", failingStore{}, planner.Request{From: "2025-08-04", To: "2025-08-10"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, events, metrics := newTestService(t, tt.store, nil)

			_, err := svc.Generate(t.Context(), tt.req)
			if err == nil {
				t.Fatal("Generate() expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("Generate() error = %v, want %v", err, tt.target)
			}

			got := events.Events()
			if len(got) != 1 || got[0].EventType != planner.EventPlanFailed {
				t.Errorf("events = %+v, want one plan_failed", got)
			}
			if v := testutil.ToFloat64(metrics.Runs.WithLabelValues("error")); v != 1 {
				t.Errorf("runs_total{outcome=error} = %v, want 1", v)
			}
		})
	}
}
