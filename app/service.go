package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkv-git/openttd/config"
	"github.com/mkv-git/openttd/core/journal"
	"github.com/mkv-git/openttd/core/linkgraph"
	coremetrics "github.com/mkv-git/openttd/core/metrics"
	"github.com/mkv-git/openttd/core/monitoring"
	"github.com/mkv-git/openttd/core/refresh"
	"github.com/mkv-git/openttd/core/scenario"
	"github.com/mkv-git/openttd/infra/logger"
	"github.com/mkv-git/openttd/infra/metrics"
	"github.com/mkv-git/openttd/infra/mqtt"
	"github.com/mkv-git/openttd/internal/eventbus"
)

// Service refreshes the links of every vehicle of a world and ships the
// results to the journal and the metrics sinks.
type Service struct {
	cfg       *config.Config
	log       logger.Logger
	world     *scenario.World
	refresher *refresh.Refresher
	bus       *eventbus.Bus
	sink      coremetrics.MetricsSink
	journal   journal.Store
	collector <-chan struct{}
	stop      context.CancelFunc
}

// New creates a Service from the configuration, loading the world from
// cfg.Scenario.Path when set.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	w := &scenario.World{Graph: linkgraph.NewGraph(), AllowMerge: cfg.Refresh.AllowMerge}
	if cfg.Scenario.Path != "" {
		sc, err := scenario.Load(cfg.Scenario.Path)
		if err != nil {
			return nil, err
		}
		if w, err = sc.Build(); err != nil {
			return nil, fmt.Errorf("build scenario: %w", err)
		}
	}
	return NewWithWorld(cfg, w)
}

// NewWithWorld creates a Service refreshing w.
func NewWithWorld(cfg *config.Config, w *scenario.World) (*Service, error) {
	log := logger.New("service")

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	if cfg.MQTTEnabled() {
		pub, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			closeSink(sink)
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		sink = coremetrics.NewMultiSink(sink, pub)
	}

	store, err := journal.NewStore(cfg.Journal)
	if err != nil {
		closeSink(sink)
		return nil, fmt.Errorf("journal: %w", err)
	}

	bus := eventbus.NewWithBuffer(cfg.Metrics.BusBuffer)
	ctx, stop := context.WithCancel(context.Background())
	collector := metrics.StartEventCollector(ctx, bus, sink)

	r := refresh.New(w.Graph, logger.New("refresher"))
	r.SetEventBus(bus)

	log.Infof("service ready: %d vehicles, journal %s", len(w.Vehicles), cfg.Journal.Backend)
	return &Service{
		cfg:       cfg,
		log:       log,
		world:     w,
		refresher: r,
		bus:       bus,
		sink:      sink,
		journal:   store,
		collector: collector,
		stop:      stop,
	}, nil
}

// World returns the refreshed world.
func (s *Service) World() *scenario.World { return s.world }

// Journal returns the session journal.
func (s *Service) Journal() journal.Store { return s.journal }

func (s *Service) allowMerge() bool {
	return s.cfg.Refresh.AllowMerge || s.world.AllowMerge
}

// RefreshAll runs one refresh for every vehicle in order and journals the
// sessions that predicted anything. Journal errors do not stop the pass.
func (s *Service) RefreshAll(ctx context.Context) ([]refresh.Summary, error) {
	var (
		out  []refresh.Summary
		errs []error
	)
	for _, v := range s.world.Vehicles {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		sum := s.refresher.Run(v, s.allowMerge())
		out = append(out, sum)
		if sum.SessionID == "" {
			continue
		}
		if err := s.journal.Append(ctx, journal.FromSummary(sum)); err != nil {
			s.log.Errorf("journal session %s: %v", sum.SessionID, err)
			monitoring.CaptureException(err, map[string]string{"vehicle": sum.VehicleID, "session": sum.SessionID})
			errs = append(errs, err)
		}
	}
	return out, errors.Join(errs...)
}

// Run serves metrics when configured and refreshes every interval until ctx
// is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	ticker := time.NewTicker(s.cfg.Refresh.Interval())
	defer ticker.Stop()
	for {
		s.pass(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Service) pass(ctx context.Context) {
	start := time.Now()
	sums, err := s.RefreshAll(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Errorf("refresh pass: %v", err)
	}
	updates := 0
	for _, sum := range sums {
		updates += len(sum.Updates)
	}
	s.log.Infof("refresh pass: %d vehicles, %d updates in %s", len(sums), updates, time.Since(start))
}

// Close drains the event collector and releases the sinks and the journal.
func (s *Service) Close() error {
	s.bus.Close()
	select {
	case <-s.collector:
	case <-time.After(5 * time.Second):
		s.log.Warnf("event collector did not drain")
	}
	s.stop()
	if n := s.bus.Dropped(); n > 0 {
		s.log.Warnf("%d events dropped by slow subscribers", n)
	}
	var errs []error
	if c, ok := s.sink.(coremetrics.Closer); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, s.journal.Close())
	return errors.Join(errs...)
}

func closeSink(sink coremetrics.MetricsSink) {
	if c, ok := sink.(coremetrics.Closer); ok {
		_ = c.Close()
	}
}
