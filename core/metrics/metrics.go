package metrics

import (
	"time"

	"github.com/mkv-git/openttd/core/linkgraph"
)

// LinkUpdate is one capacity update sent to the flow graph during a session.
type LinkUpdate struct {
	linkgraph.Update
	SessionID string
	VehicleID string
	Time      time.Time
}

// MetricsSink records link updates for observability purposes.
type MetricsSink interface {
	RecordLinkUpdates(updates []LinkUpdate) error
}

// SessionEvent summarises a refresh run for one vehicle.
type SessionEvent struct {
	SessionID  string
	VehicleID  string
	AllowMerge bool
	Hops       int
	Updates    int
	Branches   int
	MergeSkips int
	Duration   time.Duration
	Time       time.Time
}

// SessionRecorder records refresh sessions.
type SessionRecorder interface {
	RecordSession(ev SessionEvent) error
}

// Closer is implemented by sinks holding connections.
type Closer interface {
	Close() error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordLinkUpdates([]LinkUpdate) error { return nil }
func (NopSink) RecordSession(SessionEvent) error     { return nil }
