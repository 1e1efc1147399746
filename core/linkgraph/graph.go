package linkgraph

import (
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/mkv-git/openttd/core/model"
)

// EdgeInfo is the state of one directed link for one cargo.
type EdgeInfo struct {
	From                   model.StationID `json:"from"`
	To                     model.StationID `json:"to"`
	Cargo                  model.CargoID   `json:"cargo"`
	Capacity               uint            `json:"capacity"`
	LastUnrestrictedUpdate time.Time       `json:"last_unrestricted_update"`
	LastRestrictedUpdate   time.Time       `json:"last_restricted_update"`
}

type edgeKey struct {
	from, to model.StationID
	cargo    model.CargoID
}

// Graph is an in-memory flow graph keeping one weighted directed graph per
// cargo. Edge weights are capacities. It is safe for concurrent use.
type Graph struct {
	mu       sync.RWMutex
	stations map[model.StationID]struct{}
	cargo    map[model.CargoID]*simple.WeightedDirectedGraph
	edges    map[edgeKey]*EdgeInfo
	now      func() time.Time
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		stations: make(map[model.StationID]struct{}),
		cargo:    make(map[model.CargoID]*simple.WeightedDirectedGraph),
		edges:    make(map[edgeKey]*EdgeInfo),
		now:      time.Now,
	}
}

// SetClock replaces the time source used to stamp refreshed edges.
func (g *Graph) SetClock(now func() time.Time) {
	g.mu.Lock()
	g.now = now
	g.mu.Unlock()
}

// AddStation registers a station so IsValidStation accepts it.
func (g *Graph) AddStation(id model.StationID) {
	if !id.IsValid() {
		return
	}
	g.mu.Lock()
	g.stations[id] = struct{}{}
	g.mu.Unlock()
}

// IsValidStation reports whether the station was registered.
func (g *Graph) IsValidStation(id model.StationID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.stations[id]
	return ok
}

// Stations returns the registered stations in ascending order.
func (g *Graph) Stations() []model.StationID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]model.StationID, 0, len(g.stations))
	for id := range g.stations {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Connect seeds a link without stamping refresh times. Scenarios use it to
// describe links that exist before any vehicle is refreshed.
func (g *Graph) Connect(from, to model.StationID, cargo model.CargoID, capacity uint) {
	if from == to {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.upsert(from, to, cargo, capacity)
}

// IncreaseStats refreshes the edge from -> to. The capacity never decreases and
// the refresh time of the given mode is stamped.
func (g *Graph) IncreaseStats(from model.StationID, cargo model.CargoID, to model.StationID, capacity uint, mode UpdateMode) {
	if from == to {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	e := g.upsert(from, to, cargo, capacity)
	switch mode {
	case Restricted:
		e.LastRestrictedUpdate = g.now()
	default:
		e.LastUnrestrictedUpdate = g.now()
	}
}

func (g *Graph) upsert(from, to model.StationID, cargo model.CargoID, capacity uint) *EdgeInfo {
	cg, ok := g.cargo[cargo]
	if !ok {
		cg = simple.NewWeightedDirectedGraph(0, math.Inf(1))
		g.cargo[cargo] = cg
	}
	key := edgeKey{from: from, to: to, cargo: cargo}
	e, ok := g.edges[key]
	if !ok {
		e = &EdgeInfo{From: from, To: to, Cargo: cargo}
		g.edges[key] = e
	}
	if capacity > e.Capacity {
		e.Capacity = capacity
	}
	cg.SetWeightedEdge(cg.NewWeightedEdge(simple.Node(from), simple.Node(to), float64(e.Capacity)))
	return e
}

// SameComponent reports whether a and b share a flow graph for cargo. Two
// stations that are in no graph yet count as the same component, a station in
// a graph and one outside it do not.
func (g *Graph) SameComponent(a, b model.StationID, cargo model.CargoID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cg, ok := g.cargo[cargo]
	if !ok {
		return true
	}
	na, nb := cg.Node(int64(a)), cg.Node(int64(b))
	switch {
	case na == nil && nb == nil:
		return true
	case na == nil || nb == nil:
		return false
	}
	return topo.PathExistsIn(graph.Undirect{G: cg}, na, nb)
}

// Edge returns the state of a single link.
func (g *Graph) Edge(from, to model.StationID, cargo model.CargoID) (EdgeInfo, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[edgeKey{from: from, to: to, cargo: cargo}]
	if !ok {
		return EdgeInfo{}, false
	}
	return *e, true
}

// Edges lists the links for cargo ordered by origin then destination.
func (g *Graph) Edges(cargo model.CargoID) []EdgeInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []EdgeInfo
	for k, e := range g.edges {
		if k.cargo == cargo {
			out = append(out, *e)
		}
	}
	sortEdges(out)
	return out
}

// AllEdges lists every link ordered by cargo, origin and destination.
func (g *Graph) AllEdges() []EdgeInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]EdgeInfo, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, *e)
	}
	sortEdges(out)
	return out
}

// Cargoes returns the cargo types that have a flow graph.
func (g *Graph) Cargoes() []model.CargoID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]model.CargoID, 0, len(g.cargo))
	for c := range g.cargo {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Components returns the weakly connected station sets for cargo. Stations in
// each set are ascending and sets are ordered by their first station.
func (g *Graph) Components(cargo model.CargoID) [][]model.StationID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cg, ok := g.cargo[cargo]
	if !ok {
		return nil
	}
	comps := topo.ConnectedComponents(graph.Undirect{G: cg})
	out := make([][]model.StationID, 0, len(comps))
	for _, nodes := range comps {
		ids := make([]model.StationID, len(nodes))
		for i, n := range nodes {
			ids[i] = model.StationID(n.ID())
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out = append(out, ids)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func sortEdges(es []EdgeInfo) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].Cargo != es[j].Cargo {
			return es[i].Cargo < es[j].Cargo
		}
		if es[i].From != es[j].From {
			return es[i].From < es[j].From
		}
		return es[i].To < es[j].To
	})
}
