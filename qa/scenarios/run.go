package scenarios

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mkv-git/openttd/core/linkgraph"
	"github.com/mkv-git/openttd/core/refresh"
	"github.com/mkv-git/openttd/core/scenario"
	"github.com/mkv-git/openttd/infra/logger"
	"github.com/mkv-git/openttd/infra/metrics"
	"github.com/mkv-git/openttd/internal/eventbus"
)

// Files lists the scenario files in dir in name order.
func Files(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// RunScenario refreshes every vehicle of sc through the event pipeline and
// checks the produced updates against the expected ones.
func RunScenario(t *testing.T, sc *scenario.Scenario) {
	t.Helper()
	w, err := sc.Build()
	if err != nil {
		t.Fatalf("build %s: %v", sc.Name, err)
	}

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	bus := eventbus.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := metrics.StartEventCollector(ctx, bus, sink)

	r := refresh.New(w.Graph, logger.NopLogger{})
	r.SetEventBus(bus)

	var got []linkgraph.Update
	sessions := 0
	for _, v := range w.Vehicles {
		sum := r.Run(v, w.AllowMerge)
		if sum.SessionID != "" {
			sessions++
		}
		got = append(got, sum.Updates...)
	}
	bus.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("collector did not drain")
	}

	if len(got) != len(w.Expected) {
		t.Errorf("scenario %s expected %d updates, got %d: %v", sc.Name, len(w.Expected), len(got), got)
	}
	for _, m := range w.Missing(got) {
		t.Errorf("scenario %s missing update %+v", sc.Name, m)
	}
	for _, e := range w.Expected {
		edge, ok := w.Graph.Edge(e.From, e.To, e.Cargo)
		if !ok || edge.Capacity < e.Capacity {
			t.Errorf("scenario %s: graph edge %s->%s cargo %s not refreshed", sc.Name, e.From, e.To, e.Cargo)
		}
	}
	n, err := testutil.GatherAndCount(reg, "link_sessions_recorded_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if sessions > 0 && n == 0 {
		t.Errorf("scenario %s: no sessions recorded", sc.Name)
	}
}
