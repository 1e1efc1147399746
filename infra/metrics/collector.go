package metrics

import (
	"context"

	"github.com/mkv-git/openttd/core/events"
	coremetrics "github.com/mkv-git/openttd/core/metrics"
	"github.com/mkv-git/openttd/infra/logger"
	"github.com/mkv-git/openttd/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records link refresh
// events on sink. It stops when the context is canceled or the bus is closed;
// the returned channel is closed once the goroutine has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics_collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.LinkRefreshed:
					u := coremetrics.LinkUpdate{Update: e.Update, SessionID: e.SessionID, VehicleID: e.VehicleID, Time: e.Time}
					if err := sink.RecordLinkUpdates([]coremetrics.LinkUpdate{u}); err != nil {
						log.Errorf("record link update: %v", err)
					}
				case events.SessionCompleted:
					if r, ok := sink.(coremetrics.SessionRecorder); ok {
						if err := r.RecordSession(coremetrics.SessionEvent{
							SessionID:  e.SessionID,
							VehicleID:  e.VehicleID,
							AllowMerge: e.AllowMerge,
							Hops:       e.Hops,
							Updates:    e.Updates,
							Branches:   e.Branches,
							MergeSkips: e.MergeSkips,
							Duration:   e.Duration,
							Time:       e.Time,
						}); err != nil {
							log.Errorf("record session: %v", err)
						}
					}
				}
			}
		}
	}()
	return done
}
