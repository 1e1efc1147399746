// Package refresh predicts the legs a vehicle will travel from its order
// program and pushes the capacity it would offer on each leg into the flow
// graph, before the vehicle actually gets there.
package refresh

import (
	"time"

	"github.com/google/uuid"

	"github.com/mkv-git/openttd/core/events"
	"github.com/mkv-git/openttd/core/linkgraph"
	"github.com/mkv-git/openttd/core/logger"
	"github.com/mkv-git/openttd/core/model"
	"github.com/mkv-git/openttd/internal/eventbus"
)

// Summary describes one Run. SessionID is empty when nothing was predicted.
type Summary struct {
	SessionID  string
	VehicleID  string
	AllowMerge bool
	Hops       int
	Branches   int
	MergeSkips int
	Updates    []linkgraph.Update
	Started    time.Time
	Duration   time.Duration
}

// Refresher runs link refreshes against one flow graph. Runs for different
// vehicles may happen concurrently as long as the gateway allows it.
type Refresher struct {
	gateway linkgraph.Gateway
	log     logger.Logger
	bus     eventbus.EventBus
}

// New creates a Refresher. A nil logger discards output.
func New(gw linkgraph.Gateway, log logger.Logger) *Refresher {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Refresher{gateway: gw, log: log}
}

// SetEventBus publishes LinkRefreshed and SessionCompleted events on bus.
func (r *Refresher) SetEventBus(bus eventbus.EventBus) { r.bus = bus }

// Run refreshes the links v will travel. allowMerge permits updates between
// stations that are in different flow graph components for a cargo.
func (r *Refresher) Run(v Vehicle, allowMerge bool) Summary {
	start := time.Now()
	sum := Summary{VehicleID: v.ID(), AllowMerge: allowMerge, Started: start}

	orders := v.Orders()
	if orders == nil {
		observe(sum, false)
		return sum
	}
	first := orders.NextDecisionNode(orders.OrderAt(v.CurImplicitOrderIndex()), 0)
	if first == nil {
		r.log.Debugf("vehicle %s: no decision node in %d orders", v.ID(), orders.NumOrders())
		observe(sum, false)
		return sum
	}

	s := &session{
		id:         uuid.NewString(),
		gateway:    r.gateway,
		allowMerge: allowMerge,
		hops:       NewHopSet(),
	}
	root := &walker{
		orders:  orders,
		session: s,
		tracker: NewCapacityTracker(v.Kind(), v.Units()),
		cargo:   model.CargoInvalid,
	}
	r.log.Debugw("link refresh started", map[string]any{
		"session":     s.id,
		"vehicle":     v.ID(),
		"first_order": first.Index,
		"allow_merge": allowMerge,
	})
	root.refreshLinks(first, first, flags{hasCargo: v.LastLoadingStation().IsValid()}, 0)

	sum.SessionID = s.id
	sum.Hops = s.hops.Len()
	sum.Branches = s.branches
	sum.MergeSkips = s.mergeSkips
	sum.Updates = s.updates
	sum.Duration = time.Since(start)

	r.log.Debugw("link refresh finished", map[string]any{
		"session":     s.id,
		"vehicle":     v.ID(),
		"hops":        sum.Hops,
		"branches":    sum.Branches,
		"updates":     len(sum.Updates),
		"merge_skips": sum.MergeSkips,
	})
	observe(sum, true)
	r.publish(sum)
	return sum
}

func (r *Refresher) publish(sum Summary) {
	if r.bus == nil {
		return
	}
	now := time.Now()
	for _, u := range sum.Updates {
		r.bus.Publish(events.LinkRefreshed{SessionID: sum.SessionID, VehicleID: sum.VehicleID, Update: u, Time: now})
	}
	r.bus.Publish(events.SessionCompleted{
		SessionID:  sum.SessionID,
		VehicleID:  sum.VehicleID,
		AllowMerge: sum.AllowMerge,
		Hops:       sum.Hops,
		Updates:    len(sum.Updates),
		Branches:   sum.Branches,
		MergeSkips: sum.MergeSkips,
		Duration:   sum.Duration,
		Time:       now,
	})
}

// Run refreshes v against gw with a throwaway Refresher.
func Run(v Vehicle, gw linkgraph.Gateway, allowMerge bool) Summary {
	return New(gw, nil).Run(v, allowMerge)
}
