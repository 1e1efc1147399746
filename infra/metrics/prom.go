package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/mkv-git/openttd/core/metrics"
)

// PromSink records link updates and sessions in Prometheus metrics.
type PromSink struct {
	updates  *prometheus.CounterVec
	capacity *prometheus.GaugeVec
	sessions *prometheus.CounterVec
	hops     prometheus.Histogram
}

// NewPromSink registers link metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	s, err := NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	updates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "link_updates_recorded_total",
		Help: "Total number of link updates recorded per vehicle",
	}, []string{"vehicle_id", "mode"})
	capacity := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "link_capacity",
		Help: "Last capacity predicted for a link",
	}, []string{"from", "to", "cargo"})
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "link_sessions_recorded_total",
		Help: "Total number of refresh sessions recorded per vehicle",
	}, []string{"vehicle_id"})
	hops := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "link_session_hops",
		Help:    "Distinct hops predicted per refresh session",
		Buckets: prometheus.LinearBuckets(1, 4, 8),
	})

	if err := register(reg, &updates); err != nil {
		return nil, err
	}
	if err := register(reg, &capacity); err != nil {
		return nil, err
	}
	if err := register(reg, &sessions); err != nil {
		return nil, err
	}
	if err := register(reg, &hops); err != nil {
		return nil, err
	}
	return &PromSink{updates: updates, capacity: capacity, sessions: sessions, hops: hops}, nil
}

// register adds c to reg, reusing the existing collector when an identical
// one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return err
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return err
		}
		*c = existing
	}
	return nil
}

// RecordLinkUpdates counts updates and keeps the last capacity per link.
func (s *PromSink) RecordLinkUpdates(updates []coremetrics.LinkUpdate) error {
	for _, u := range updates {
		s.updates.WithLabelValues(u.VehicleID, u.Mode.String()).Inc()
		s.capacity.WithLabelValues(u.From.String(), u.To.String(), u.Cargo.String()).Set(float64(u.Capacity))
	}
	return nil
}

// RecordSession counts sessions and observes their hop count.
func (s *PromSink) RecordSession(ev coremetrics.SessionEvent) error {
	s.sessions.WithLabelValues(ev.VehicleID).Inc()
	s.hops.Observe(float64(ev.Hops))
	return nil
}
