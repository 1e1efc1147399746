package metrics_test

import (
	"errors"
	"testing"

	"github.com/mkv-git/openttd/core/factory"
	metrics "github.com/mkv-git/openttd/core/metrics"
	_ "github.com/mkv-git/openttd/infra/metrics"
)

type closingSink struct {
	metrics.NopSink
	closed *int
}

func (s closingSink) Close() error {
	*s.closed++
	return nil
}

var closedSinks int

func init() {
	_ = metrics.RegisterMetricsSink("test-closing", func(map[string]any) (metrics.MetricsSink, error) {
		return closingSink{closed: &closedSinks}, nil
	})
	_ = metrics.RegisterMetricsSink("test-broken", func(map[string]any) (metrics.MetricsSink, error) {
		return nil, errors.New("broken sink")
	})
}

/*
TestMetricsFactory_Builtins verifies registration via infra/metrics/factory.go.

	Cases:
	- instantiate builtin nop sink
	- unknown type returns error
*/
func TestMetricsFactory_Builtins(t *testing.T) {
	s, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	if err != nil {
		t.Fatalf("create nop: %v", err)
	}
	if s == nil {
		t.Fatal("expected sink instance")
	}
	if _, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "missing"}}); err == nil {
		t.Fatal("expected error for unknown type")
	}
	types := map[string]bool{}
	for _, n := range metrics.SinkTypes() {
		types[n] = true
	}
	for _, n := range []string{"nop", "prometheus", "influx", "mqtt"} {
		if !types[n] {
			t.Errorf("sink %s not registered", n)
		}
	}
}

func TestNewMetricsSink_Multi(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	if err != nil {
		t.Fatalf("create nop default: %v", err)
	}
	if _, ok := s.(metrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}

	cfgs := []factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}}
	s, err = metrics.NewMetricsSink(cfgs)
	if err != nil {
		t.Fatalf("create multi: %v", err)
	}
	m, ok := s.(*metrics.MultiSink)
	if !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
	if len(m.Sinks) != 2 {
		t.Fatalf("expected 2 sinks, got %d", len(m.Sinks))
	}
}

func TestNewMetricsSink_ClosesCreatedOnError(t *testing.T) {
	closedSinks = 0
	cfgs := []factory.ModuleConfig{{Type: "test-closing"}, {Type: "nop"}, {Type: "test-closing"}, {Type: "test-broken"}}
	if _, err := metrics.NewMetricsSink(cfgs); err == nil {
		t.Fatal("expected error from broken sink")
	}
	if closedSinks != 2 {
		t.Fatalf("expected 2 closed sinks, got %d", closedSinks)
	}
}
