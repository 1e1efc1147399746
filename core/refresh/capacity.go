package refresh

import (
	"sort"

	"github.com/mkv-git/openttd/core/model"
)

// unitRefit is the predicted state of one unit: the cargo it would carry, its
// nominal capacity for that cargo and what is still free on this hop.
type unitRefit struct {
	cargo     model.CargoID
	capacity  uint
	remaining uint
}

// CapacityTracker predicts per-cargo capacity of a consist across
// hypothetical refits. The bucket of a cargo always equals the sum of
// remaining over the units holding it.
type CapacityTracker struct {
	kind       model.VehicleKind
	units      []model.Unit
	refits     []unitRefit
	capacities map[model.CargoID]uint
}

// NewCapacityTracker seeds the tracker from the current state of units.
func NewCapacityTracker(kind model.VehicleKind, units []model.Unit) *CapacityTracker {
	t := &CapacityTracker{
		kind:       kind,
		units:      units,
		refits:     make([]unitRefit, len(units)),
		capacities: make(map[model.CargoID]uint),
	}
	for i, u := range units {
		rem := u.RefitCapacity()
		if rem > u.Capacity() {
			rem = u.Capacity()
		}
		t.refits[i] = unitRefit{cargo: u.CargoType(), capacity: u.Capacity(), remaining: rem}
		if rem > 0 {
			t.capacities[u.CargoType()] += rem
		}
	}
	return t
}

// Clone returns an independent copy. Units are shared since they are only
// queried.
func (t *CapacityTracker) Clone() *CapacityTracker {
	c := &CapacityTracker{
		kind:       t.kind,
		units:      t.units,
		refits:     make([]unitRefit, len(t.refits)),
		capacities: make(map[model.CargoID]uint, len(t.capacities)),
	}
	copy(c.refits, t.refits)
	for k, v := range t.capacities {
		c.capacities[k] = v
	}
	return c
}

// ApplyRefit simulates refitting every capable unit to cargo. Capacity is only
// ever taken away here: a unit switching cargo loses what it had left and a
// unit keeping its cargo shrinks to the new amount. ResetRefit gives it back.
func (t *CapacityTracker) ApplyRefit(cargo model.CargoID) {
	for i, u := range t.units {
		if !u.CanCarry(cargo) {
			continue
		}
		amount, secondary := u.SimulateCapacity(cargo)
		r := &t.refits[i]
		if r.cargo != cargo && r.remaining > 0 {
			t.take(r.cargo, r.remaining)
			r.remaining = 0
		} else if amount < r.remaining {
			t.take(r.cargo, r.remaining-amount)
			r.remaining = amount
		}
		r.capacity = amount
		r.cargo = cargo

		if t.kind == model.KindAircraft {
			// The mail compartment is the following unit and keeps its cargo.
			if i+1 < len(t.refits) {
				m := &t.refits[i+1]
				if secondary < m.remaining {
					t.take(m.cargo, m.remaining-secondary)
					m.remaining = secondary
				}
				m.capacity = secondary
			}
			break
		}
	}
}

// ResetRefit restores every unit to its nominal capacity. It is idempotent.
// remaining never exceeds capacity, see ApplyRefit.
func (t *CapacityTracker) ResetRefit() {
	for i := range t.refits {
		r := &t.refits[i]
		if r.remaining == r.capacity {
			continue
		}
		t.capacities[r.cargo] += r.capacity - r.remaining
		r.remaining = r.capacity
	}
}

func (t *CapacityTracker) take(cargo model.CargoID, amount uint) {
	have := t.capacities[cargo]
	if amount >= have {
		delete(t.capacities, cargo)
		return
	}
	t.capacities[cargo] = have - amount
}

// Capacity returns the free capacity for cargo.
func (t *CapacityTracker) Capacity(cargo model.CargoID) uint { return t.capacities[cargo] }

// Capacities returns a copy of the non-empty buckets.
func (t *CapacityTracker) Capacities() map[model.CargoID]uint {
	out := make(map[model.CargoID]uint, len(t.capacities))
	for k, v := range t.capacities {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

// Cargoes lists the cargo types with free capacity in ascending order.
func (t *CapacityTracker) Cargoes() []model.CargoID {
	out := make([]model.CargoID, 0, len(t.capacities))
	for c, v := range t.capacities {
		if v > 0 {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NominalTotal sums nominal capacity per cargo over all units. After
// ResetRefit the buckets equal it.
func (t *CapacityTracker) NominalTotal() map[model.CargoID]uint {
	out := make(map[model.CargoID]uint)
	for _, r := range t.refits {
		if r.capacity > 0 {
			out[r.cargo] += r.capacity
		}
	}
	return out
}
