package refresh

import (
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkv-git/openttd/core/events"
	"github.com/mkv-git/openttd/core/linkgraph"
	"github.com/mkv-git/openttd/core/model"
	"github.com/mkv-git/openttd/internal/eventbus"
)

const (
	stationA model.StationID = 1
	stationB model.StationID = 2
	stationC model.StationID = 3
)

type recordingGateway struct {
	updates []linkgraph.Update
	same    func(a, b model.StationID, cargo model.CargoID) bool
}

func (g *recordingGateway) IncreaseStats(from model.StationID, cargo model.CargoID, to model.StationID, capacity uint, mode linkgraph.UpdateMode) {
	g.updates = append(g.updates, linkgraph.Update{From: from, To: to, Cargo: cargo, Capacity: capacity, Mode: mode})
}

func (g *recordingGateway) SameComponent(a, b model.StationID, cargo model.CargoID) bool {
	if g.same == nil {
		return true
	}
	return g.same(a, b, cargo)
}

func coalWagon() *model.Part {
	return &model.Part{Cargo: cargoCoal, Cap: 100, RefitCap: 100, Refits: map[model.CargoID]model.RefitOption{
		cargoGood: {Primary: 80},
	}}
}

func train(id string, orders *model.OrderList, parts ...*model.Part) *model.Vehicle {
	return &model.Vehicle{
		VehicleID:     id,
		VehicleKind:   model.KindTrain,
		OrderList:     orders,
		LastLoadingAt: model.InvalidStation,
		Parts:         parts,
	}
}

// refitLoop is A(refit to goods) -> second -> conditional back to A.
func refitLoop(second model.Order) *model.OrderList {
	return model.NewOrderList(
		model.Order{Type: model.OrderStation, Destination: stationA, Refit: true, RefitCargo: cargoGood},
		second,
		model.Order{Type: model.OrderConditional, Condition: model.ConditionLoadPercentage, SkipTo: 0},
	)
}

func TestRunRefitLoopRefreshesEachLegOnce(t *testing.T) {
	gw := &recordingGateway{}
	v := train("t1", refitLoop(model.Order{Type: model.OrderStation, Destination: stationB}), coalWagon())

	sum := Run(v, gw, true)

	want := []linkgraph.Update{
		{From: stationA, To: stationB, Cargo: cargoGood, Capacity: 80, Mode: linkgraph.Unrestricted},
		{From: stationB, To: stationA, Cargo: cargoGood, Capacity: 80, Mode: linkgraph.Unrestricted},
	}
	assert.Equal(t, want, gw.updates)
	assert.Equal(t, want, sum.Updates)
	assert.Equal(t, 2, sum.Hops)
	assert.Equal(t, 1, sum.Branches)
	assert.NotEmpty(t, sum.SessionID)
}

func TestRunRefitLoopDropOff(t *testing.T) {
	gw := &recordingGateway{}
	dropOff := model.Order{Type: model.OrderStation, Destination: stationB, Load: model.LoadNoLoad, Unload: model.UnloadUnload}
	v := train("t1", refitLoop(dropOff), coalWagon())

	Run(v, gw, true)

	require.Len(t, gw.updates, 1)
	assert.Equal(t, linkgraph.Update{From: stationA, To: stationB, Cargo: cargoGood, Capacity: 80, Mode: linkgraph.Unrestricted}, gw.updates[0])
}

func TestRunWithoutOrdersIsNoop(t *testing.T) {
	gw := &recordingGateway{}
	sum := Run(train("t1", nil, coalWagon()), gw, true)
	assert.Empty(t, gw.updates)
	assert.Empty(t, sum.SessionID)

	waypoints := model.NewOrderList(
		model.Order{Type: model.OrderWaypoint},
		model.Order{Type: model.OrderWaypoint},
	)
	sum = Run(train("t2", waypoints, coalWagon()), gw, true)
	assert.Empty(t, gw.updates)
	assert.Zero(t, sum.Hops)
}

func TestRunRestrictedTagging(t *testing.T) {
	orders := model.NewOrderList(
		model.Order{Type: model.OrderStation, Destination: stationA, Load: model.LoadNoLoad},
		model.Order{Type: model.OrderStation, Destination: stationB},
	)

	t.Run("loaded on arrival", func(t *testing.T) {
		gw := &recordingGateway{}
		v := train("t1", orders, coalWagon())
		v.LastLoadingAt = stationC
		Run(v, gw, true)
		assert.Equal(t, []linkgraph.Update{
			{From: stationA, To: stationB, Cargo: cargoCoal, Capacity: 100, Mode: linkgraph.Restricted},
			{From: stationB, To: stationA, Cargo: cargoCoal, Capacity: 100, Mode: linkgraph.Unrestricted},
		}, gw.updates)
	})

	t.Run("empty on arrival", func(t *testing.T) {
		gw := &recordingGateway{}
		Run(train("t1", orders, coalWagon()), gw, true)
		assert.Equal(t, []linkgraph.Update{
			{From: stationB, To: stationA, Cargo: cargoCoal, Capacity: 100, Mode: linkgraph.Unrestricted},
		}, gw.updates)
	})
}

func TestRunMergePolicy(t *testing.T) {
	orders := model.NewOrderList(
		model.Order{Type: model.OrderStation, Destination: stationA},
		model.Order{Type: model.OrderStation, Destination: stationC},
	)
	newGraph := func() *linkgraph.Graph {
		g := linkgraph.NewGraph()
		for _, s := range []model.StationID{stationA, stationB, stationC, 4} {
			g.AddStation(s)
		}
		g.Connect(stationA, stationB, cargoCoal, 10)
		g.Connect(stationC, 4, cargoCoal, 10)
		return g
	}

	g := newGraph()
	sum := Run(train("t1", orders, coalWagon()), g, false)
	assert.Empty(t, sum.Updates)
	assert.Equal(t, 2, sum.MergeSkips)
	assert.False(t, g.SameComponent(stationA, stationC, cargoCoal))

	g = newGraph()
	sum = Run(train("t1", orders, coalWagon()), g, true)
	assert.Len(t, sum.Updates, 2)
	assert.True(t, g.SameComponent(stationA, stationC, cargoCoal))
	e, ok := g.Edge(stationA, stationC, cargoCoal)
	require.True(t, ok)
	assert.Equal(t, uint(100), e.Capacity)
}

func TestRunSkipsUnknownStations(t *testing.T) {
	g := linkgraph.NewGraph()
	g.AddStation(stationA)
	orders := model.NewOrderList(
		model.Order{Type: model.OrderStation, Destination: stationA},
		model.Order{Type: model.OrderStation, Destination: stationB},
		model.Order{Type: model.OrderStation, Destination: stationA},
	)
	sum := Run(train("t1", orders, coalWagon()), g, true)
	assert.Empty(t, sum.Updates)
	assert.Empty(t, g.AllEdges())
}

func TestRunTerminatesOnArbitraryPrograms(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(8)
		orders := make([]model.Order, n)
		for j := range orders {
			switch rng.Intn(6) {
			case 0:
				orders[j] = model.Order{Type: model.OrderConditional, Condition: model.ConditionVariable(rng.Intn(7)), SkipTo: rng.Intn(n + 1)}
			case 1:
				orders[j] = model.Order{Type: model.OrderWaypoint}
			case 2:
				orders[j] = model.Order{Type: model.OrderDepot, Refit: rng.Intn(2) == 0, RefitCargo: cargoGood}
			case 3:
				orders[j] = model.Order{Type: model.OrderStation, Destination: model.StationID(rng.Intn(3)), Refit: true, RefitCargo: cargoGood}
			default:
				orders[j] = model.Order{Type: model.OrderStation, Destination: model.StationID(rng.Intn(3)), Load: model.LoadFlags(rng.Intn(3))}
			}
		}
		v := train("fuzz", model.NewOrderList(orders...), coalWagon())
		v.CurImplicit = rng.Intn(n)

		sum := Run(v, &recordingGateway{}, rng.Intn(2) == 0)
		// hops are distinct (from, to, cargo) triples with two possible cargoes
		if sum.Hops > 2*n*n {
			t.Fatalf("program %d: %d hops for %d orders", i, sum.Hops, n)
		}
	}
}

func TestRunPublishesEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	ch := bus.Subscribe()

	r := New(&recordingGateway{}, nil)
	r.SetEventBus(bus)
	sum := r.Run(train("t1", refitLoop(model.Order{Type: model.OrderStation, Destination: stationB}), coalWagon()), true)

	var links []events.LinkRefreshed
	for i := 0; i < len(sum.Updates); i++ {
		ev := <-ch
		lr, ok := ev.(events.LinkRefreshed)
		require.True(t, ok, "unexpected event %T", ev)
		links = append(links, lr)
	}
	done, ok := (<-ch).(events.SessionCompleted)
	require.True(t, ok)
	assert.Equal(t, sum.SessionID, done.SessionID)
	assert.Equal(t, len(sum.Updates), done.Updates)
	assert.Equal(t, stationA, links[0].Update.From)
	assert.Equal(t, "t1", links[0].VehicleID)
}

func TestRunMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ResetMetrics(reg)
	t.Cleanup(func() { ResetMetrics(nil) })

	Run(train("t1", refitLoop(model.Order{Type: model.OrderStation, Destination: stationB}), coalWagon()), &recordingGateway{}, true)
	Run(train("t2", nil, coalWagon()), &recordingGateway{}, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(refreshRuns.WithLabelValues("refreshed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(refreshRuns.WithLabelValues("noop")))
	assert.Equal(t, 2.0, testutil.ToFloat64(refreshHops))
	assert.Equal(t, 1.0, testutil.ToFloat64(refreshBranches))
	assert.Equal(t, 2.0, testutil.ToFloat64(refreshUpdates.WithLabelValues("5", "unrestricted")))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, n := range []string{
		"link_refresh_runs_total",
		"link_refresh_hops_total",
		"link_refresh_updates_total",
		"link_refresh_branches_total",
		"link_refresh_merge_skips_total",
		"link_refresh_duration_seconds",
	} {
		assert.True(t, names[n], "metric %s not registered", n)
	}
}

func TestRunDepotRefitResetsAtSecondStation(t *testing.T) {
	gw := &recordingGateway{}
	orders := model.NewOrderList(
		model.Order{Type: model.OrderStation, Destination: stationA},
		model.Order{Type: model.OrderDepot, Refit: true, RefitCargo: cargoGood},
		model.Order{Type: model.OrderStation, Destination: stationB},
		model.Order{Type: model.OrderStation, Destination: stationC},
	)

	sum := Run(train("t1", orders, coalWagon()), gw, true)

	// A -> B carries nothing: the wagon is being refitted on the way and its
	// goods capacity only comes back once B has been served.
	assert.Equal(t, []linkgraph.Update{
		{From: stationB, To: stationC, Cargo: cargoGood, Capacity: 80, Mode: linkgraph.Unrestricted},
		{From: stationC, To: stationA, Cargo: cargoGood, Capacity: 80, Mode: linkgraph.Unrestricted},
	}, gw.updates)
	assert.Equal(t, 5, sum.Hops)
	assert.Zero(t, sum.Branches)
}

func TestRunAutoRefitKeepsCargo(t *testing.T) {
	gw := &recordingGateway{}
	orders := model.NewOrderList(
		model.Order{Type: model.OrderStation, Destination: stationA, Refit: true, RefitCargo: model.CargoAutoRefit},
		model.Order{Type: model.OrderStation, Destination: stationB},
	)

	sum := Run(train("t1", orders, coalWagon()), gw, true)

	assert.Equal(t, []linkgraph.Update{
		{From: stationA, To: stationB, Cargo: cargoCoal, Capacity: 100, Mode: linkgraph.Unrestricted},
		{From: stationB, To: stationA, Cargo: cargoCoal, Capacity: 100, Mode: linkgraph.Unrestricted},
	}, gw.updates)
	assert.Equal(t, 2, sum.Hops)
}

func TestRunImplicitStops(t *testing.T) {
	gw := &recordingGateway{}
	orders := model.NewOrderList(
		model.Order{Type: model.OrderStation, Destination: stationA},
		model.Order{Type: model.OrderImplicit, Destination: stationB},
		model.Order{Type: model.OrderStation, Destination: stationC},
	)

	sum := Run(train("t1", orders, coalWagon()), gw, true)

	assert.Equal(t, []linkgraph.Update{
		{From: stationA, To: stationB, Cargo: cargoCoal, Capacity: 100, Mode: linkgraph.Unrestricted},
		{From: stationB, To: stationC, Cargo: cargoCoal, Capacity: 100, Mode: linkgraph.Unrestricted},
		{From: stationC, To: stationA, Cargo: cargoCoal, Capacity: 100, Mode: linkgraph.Unrestricted},
	}, gw.updates)
	assert.Equal(t, 3, sum.Hops)
}

func TestRunUpdatesEveryCargoInOrder(t *testing.T) {
	gw := &recordingGateway{}
	orders := model.NewOrderList(
		model.Order{Type: model.OrderStation, Destination: stationA},
		model.Order{Type: model.OrderStation, Destination: stationB},
	)
	mailVan := &model.Part{Cargo: cargoMail, Cap: 20, RefitCap: 20}

	Run(train("t1", orders, mailVan, coalWagon()), gw, true)

	assert.Equal(t, []linkgraph.Update{
		{From: stationA, To: stationB, Cargo: cargoCoal, Capacity: 100, Mode: linkgraph.Unrestricted},
		{From: stationA, To: stationB, Cargo: cargoMail, Capacity: 20, Mode: linkgraph.Unrestricted},
		{From: stationB, To: stationA, Cargo: cargoCoal, Capacity: 100, Mode: linkgraph.Unrestricted},
		{From: stationB, To: stationA, Cargo: cargoMail, Capacity: 20, Mode: linkgraph.Unrestricted},
	}, gw.updates)
}

func TestRunAircraftRefitFeedsMailSlot(t *testing.T) {
	orders := model.NewOrderList(
		model.Order{Type: model.OrderStation, Destination: stationA, Refit: true, RefitCargo: cargoGood},
		model.Order{Type: model.OrderStation, Destination: stationB},
	)
	plane := func(kind model.VehicleKind) *model.Vehicle {
		v := train("p1", orders,
			&model.Part{Cargo: cargoPass, Cap: 100, RefitCap: 100, Secondary: 30, Refits: map[model.CargoID]model.RefitOption{
				cargoGood: {Primary: 60, Secondary: 10},
			}},
			&model.Part{Cargo: cargoMail, Cap: 30, RefitCap: 30},
		)
		v.VehicleKind = kind
		return v
	}

	gw := &recordingGateway{}
	Run(plane(model.KindAircraft), gw, true)
	assert.Equal(t, []linkgraph.Update{
		{From: stationA, To: stationB, Cargo: cargoMail, Capacity: 10, Mode: linkgraph.Unrestricted},
		{From: stationA, To: stationB, Cargo: cargoGood, Capacity: 60, Mode: linkgraph.Unrestricted},
		{From: stationB, To: stationA, Cargo: cargoMail, Capacity: 10, Mode: linkgraph.Unrestricted},
		{From: stationB, To: stationA, Cargo: cargoGood, Capacity: 60, Mode: linkgraph.Unrestricted},
	}, gw.updates)

	// a train with the same parts keeps the full mail van
	gw = &recordingGateway{}
	Run(plane(model.KindTrain), gw, true)
	require.Len(t, gw.updates, 4)
	assert.Equal(t, linkgraph.Update{From: stationA, To: stationB, Cargo: cargoMail, Capacity: 30, Mode: linkgraph.Unrestricted}, gw.updates[0])
}
