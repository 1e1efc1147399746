package scenario

import (
	"fmt"

	"github.com/mkv-git/openttd/core/linkgraph"
	"github.com/mkv-git/openttd/core/model"
)

// World is a built scenario ready to be refreshed.
type World struct {
	Name       string
	AllowMerge bool
	Graph      *linkgraph.Graph
	Vehicles   []*model.Vehicle
	Expected   []linkgraph.Update
}

// Build validates the scenario and creates its flow graph and vehicles.
func (s *Scenario) Build() (*World, error) {
	g := linkgraph.NewGraph()
	for _, id := range s.Stations {
		if !id.IsValid() {
			return nil, fmt.Errorf("%w: station id %d is reserved", ErrInvalidValue, id)
		}
		g.AddStation(id)
	}
	for i, l := range s.Links {
		if !g.IsValidStation(l.From) || !g.IsValidStation(l.To) {
			return nil, fmt.Errorf("link %d: %w: %s -> %s", i, ErrUnknownStation, l.From, l.To)
		}
		if !l.Cargo.IsValid() {
			return nil, fmt.Errorf("link %d: %w: cargo %s", i, ErrInvalidValue, l.Cargo)
		}
		g.Connect(l.From, l.To, l.Cargo, l.Capacity)
	}

	w := &World{Name: s.Name, AllowMerge: s.AllowMerge, Graph: g}
	seen := make(map[string]bool, len(s.Vehicles))
	for _, vs := range s.Vehicles {
		if seen[vs.ID] {
			return nil, fmt.Errorf("vehicle %s: duplicate id", vs.ID)
		}
		seen[vs.ID] = true
		v, err := vs.build(g)
		if err != nil {
			return nil, fmt.Errorf("vehicle %s: %w", vs.ID, err)
		}
		w.Vehicles = append(w.Vehicles, v)
	}
	for i, e := range s.Expected {
		mode, err := parseMode(e.Mode)
		if err != nil {
			return nil, fmt.Errorf("expected %d: %w", i, err)
		}
		w.Expected = append(w.Expected, linkgraph.Update{From: e.From, To: e.To, Cargo: e.Cargo, Capacity: e.Capacity, Mode: mode})
	}
	return w, nil
}

// Missing returns the expected updates that are not in got.
func (w *World) Missing(got []linkgraph.Update) []linkgraph.Update {
	have := make(map[linkgraph.Update]int, len(got))
	for _, u := range got {
		have[u]++
	}
	var out []linkgraph.Update
	for _, e := range w.Expected {
		if have[e] == 0 {
			out = append(out, e)
			continue
		}
		have[e]--
	}
	return out
}

func (vs Vehicle) build(g *linkgraph.Graph) (*model.Vehicle, error) {
	kind, err := parseKind(vs.Kind)
	if err != nil {
		return nil, err
	}
	v := &model.Vehicle{
		VehicleID:     vs.ID,
		VehicleKind:   kind,
		CurImplicit:   vs.CurrentOrder,
		LastLoadingAt: model.InvalidStation,
	}
	if vs.LastLoadingStation != nil {
		if !g.IsValidStation(*vs.LastLoadingStation) {
			return nil, fmt.Errorf("last loading station: %w: %s", ErrUnknownStation, *vs.LastLoadingStation)
		}
		v.LastLoadingAt = *vs.LastLoadingStation
	}
	for _, u := range vs.Units {
		p := &model.Part{Cargo: u.Cargo, Cap: u.Capacity, RefitCap: u.Capacity, Secondary: u.Secondary}
		if u.RefitCapacity != nil {
			p.RefitCap = *u.RefitCapacity
		}
		if len(u.Refits) > 0 {
			p.Refits = make(map[model.CargoID]model.RefitOption, len(u.Refits))
			for c, r := range u.Refits {
				p.Refits[c] = model.RefitOption{Primary: r.Primary, Secondary: r.Secondary}
			}
		}
		v.Parts = append(v.Parts, p)
	}

	if len(vs.Orders) > 0 {
		orders := make([]model.Order, 0, len(vs.Orders))
		for i, ord := range vs.Orders {
			o, err := ord.build(g, len(vs.Orders))
			if err != nil {
				return nil, fmt.Errorf("order %d: %w", i, err)
			}
			orders = append(orders, o)
		}
		if vs.CurrentOrder < 0 || vs.CurrentOrder >= len(orders) {
			return nil, fmt.Errorf("%w: current order %d out of range", ErrInvalidValue, vs.CurrentOrder)
		}
		v.OrderList = model.NewOrderList(orders...)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

func (ord Order) build(g *linkgraph.Graph, n int) (model.Order, error) {
	t, err := parseOrderType(ord.Type)
	if err != nil {
		return model.Order{}, err
	}
	o := model.Order{Type: t, Destination: model.InvalidStation, NoStop: ord.NoStop}
	switch t {
	case model.OrderStation, model.OrderImplicit:
		if !g.IsValidStation(ord.Destination) {
			return o, fmt.Errorf("%w: %s", ErrUnknownStation, ord.Destination)
		}
		o.Destination = ord.Destination
	case model.OrderConditional:
		if o.Condition, err = parseCondition(ord.Condition); err != nil {
			return o, err
		}
		if ord.SkipTo < 0 || ord.SkipTo >= n {
			return o, fmt.Errorf("%w: skip_to %d out of range", ErrInvalidValue, ord.SkipTo)
		}
		o.SkipTo = ord.SkipTo
	case model.OrderDepot:
		if ord.Halt {
			o.DepotAction = model.DepotHalt
		}
	}
	switch {
	case ord.AutoRefit:
		o.Refit, o.RefitCargo = true, model.CargoAutoRefit
	case ord.Refit != nil:
		if !ord.Refit.IsValid() {
			return o, fmt.Errorf("%w: refit cargo %s", ErrInvalidValue, *ord.Refit)
		}
		o.Refit, o.RefitCargo = true, *ord.Refit
	}
	if o.Load, err = parseLoad(ord.Load); err != nil {
		return o, err
	}
	if o.Unload, err = parseUnload(ord.Unload); err != nil {
		return o, err
	}
	return o, nil
}
