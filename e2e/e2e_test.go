//go:build e2e

package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkv-git/openttd/app"
	"github.com/mkv-git/openttd/config"
	"github.com/mkv-git/openttd/core/factory"
	"github.com/mkv-git/openttd/core/journal"
	"github.com/mkv-git/openttd/test/util"
)

const (
	influxOrg    = "openttd"
	influxBucket = "links"
	influxToken  = "e2e-token"
)

const world = `
name: e2e
stations: [1, 2, 3]
vehicles:
  - id: train-1
    units:
      - {cargo: 1, capacity: 100}
    orders:
      - {type: station, destination: 1}
      - {type: station, destination: 2}
      - {type: station, destination: 3}
`

func TestServiceWritesInfluxAndPrometheus(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	influx, cleanup, err := util.StartInfluxDB(ctx, influxOrg, influxBucket, influxToken)
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	defer cleanup()

	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "world.yaml")
	require.NoError(t, os.WriteFile(scenarioPath, []byte(world), 0o644))

	cfg := &config.Config{
		Refresh:  config.RefreshConfig{AllowMerge: true, IntervalSeconds: 1},
		Journal:  journal.Config{Backend: "sqlite", Path: filepath.Join(dir, "journal.db")},
		Scenario: config.ScenarioConfig{Path: scenarioPath},
	}
	cfg.Metrics.PrometheusAddr, err = util.FreeAddr()
	require.NoError(t, err)
	cfg.Metrics.Sinks = []factory.ModuleConfig{
		{Type: "prometheus"},
		{Type: "influx", Conf: map[string]any{"url": influx.URL, "token": influx.Token, "org": influx.Org, "bucket": influx.Bucket}},
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	svc, err := app.New(cfg)
	require.NoError(t, err)
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- svc.Run(runCtx) }()

	metricsCtx, metricsCancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer metricsCancel()
	require.NoError(t, util.WaitForMetric(metricsCtx, "http://"+cfg.Metrics.PrometheusAddr+"/metrics", "link_capacity{"))

	client := NewInfluxClient(influx.URL, influx.Org, influx.Bucket, influx.Token)
	defer client.Close()
	require.Eventually(t, func() bool {
		n, err := client.CountPoints(ctx, "link_refresh")
		return err == nil && n >= 3
	}, 20*time.Second, 500*time.Millisecond)

	stop()
	require.NoError(t, <-done)
	require.NoError(t, svc.Close())

	store, err := journal.NewSQLiteStore(cfg.Journal.Path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	recs, err := store.Query(ctx, journal.Query{VehicleID: "train-1"})
	require.NoError(t, err)
	require.NotEmpty(t, recs)
}
