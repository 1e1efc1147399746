// Package events defines the values published on the event bus while links
// are refreshed.
package events

import (
	"time"

	"github.com/mkv-git/openttd/core/linkgraph"
)

// LinkRefreshed is published once per capacity update sent to the flow graph.
type LinkRefreshed struct {
	SessionID string
	VehicleID string
	Update    linkgraph.Update
	Time      time.Time
}

// SessionCompleted is published when a refresh run for one vehicle ends.
type SessionCompleted struct {
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
