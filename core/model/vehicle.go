package model

import "fmt"

// VehicleKind is the transport mode of a vehicle.
type VehicleKind int

const (
	KindTrain VehicleKind = iota
	KindRoad
	KindShip
	KindAircraft
)

// String returns a human-readable representation of the vehicle kind.
func (k VehicleKind) String() string {
	switch k {
	case KindTrain:
		return "train"
	case KindRoad:
		return "road"
	case KindShip:
		return "ship"
	case KindAircraft:
		return "aircraft"
	default:
		return "unknown"
	}
}

// Unit is one physical part of a consist as seen by capacity prediction.
type Unit interface {
	CargoType() CargoID
	// Capacity is the nominal capacity for the current cargo.
	Capacity() uint
	// RefitCapacity is the capacity currently available after refits.
	RefitCapacity() uint
	CanCarry(cargo CargoID) bool
	// SimulateCapacity returns the capacity the unit would have if it were
	// refitted to cargo. It must not change the unit.
	SimulateCapacity(cargo CargoID) (primary, secondary uint)
}

// RefitOption is the capacity a part offers for one cargo. Secondary is only
// used by aircraft, whose mail compartment sits in the following part.
type RefitOption struct {
	Primary   uint
	Secondary uint
}

// Part is the in-memory Unit implementation.
type Part struct {
	Cargo     CargoID
	Cap       uint
	RefitCap  uint
	Refits    map[CargoID]RefitOption
	Secondary uint
}

func (p *Part) CargoType() CargoID  { return p.Cargo }
func (p *Part) Capacity() uint      { return p.Cap }
func (p *Part) RefitCapacity() uint { return p.RefitCap }

// CanCarry reports whether the part can be refitted to cargo.
func (p *Part) CanCarry(cargo CargoID) bool {
	if cargo == p.Cargo {
		return true
	}
	_, ok := p.Refits[cargo]
	return ok
}

// SimulateCapacity looks up the refit table. The current cargo falls back to
// the nominal capacity when it has no explicit entry.
func (p *Part) SimulateCapacity(cargo CargoID) (uint, uint) {
	if opt, ok := p.Refits[cargo]; ok {
		return opt.Primary, opt.Secondary
	}
	if cargo == p.Cargo {
		return p.Cap, p.Secondary
	}
	return 0, 0
}

// Vehicle is a consist with its order program.
type Vehicle struct {
	VehicleID     string
	VehicleKind   VehicleKind
	OrderList     *OrderList
	CurImplicit   int
	LastLoadingAt StationID
	Parts         []*Part
}

// Validate checks that the vehicle can be refreshed.
func (v *Vehicle) Validate() error {
	if v.VehicleID == "" {
		return fmt.Errorf("vehicle id is required")
	}
	if len(v.Parts) == 0 {
		return fmt.Errorf("vehicle %s has no parts", v.VehicleID)
	}
	for i, p := range v.Parts {
		if p.RefitCap > p.Cap {
			return fmt.Errorf("vehicle %s part %d: refit capacity %d exceeds capacity %d", v.VehicleID, i, p.RefitCap, p.Cap)
		}
	}
	return nil
}

func (v *Vehicle) ID() string                    { return v.VehicleID }
func (v *Vehicle) Kind() VehicleKind             { return v.VehicleKind }
func (v *Vehicle) CurImplicitOrderIndex() int    { return v.CurImplicit }
func (v *Vehicle) LastLoadingStation() StationID { return v.LastLoadingAt }

// Orders returns the order program or nil when the vehicle has none.
func (v *Vehicle) Orders() OrderProgram {
	if v.OrderList == nil {
		return nil
	}
	return v.OrderList
}

// Units returns the parts in consist order.
func (v *Vehicle) Units() []Unit {
	units := make([]Unit, len(v.Parts))
	for i, p := range v.Parts {
		units[i] = p
	}
	return units
}
