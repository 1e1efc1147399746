package model

// OrderType defines what a vehicle does when it reaches an order.
type OrderType int

const (
	OrderNothing OrderType = iota
	OrderStation
	OrderDepot
	OrderWaypoint
	OrderImplicit
	OrderConditional
)

// String returns a human-readable representation of the order type.
func (t OrderType) String() string {
	switch t {
	case OrderNothing:
		return "nothing"
	case OrderStation:
		return "station"
	case OrderDepot:
		return "depot"
	case OrderWaypoint:
		return "waypoint"
	case OrderImplicit:
		return "implicit"
	case OrderConditional:
		return "conditional"
	default:
		return "unknown"
	}
}

// LoadFlags restrict loading at a stop.
type LoadFlags uint8

const (
	LoadFullLoad LoadFlags = 1 << iota
	LoadNoLoad
)

// UnloadFlags restrict unloading at a stop.
type UnloadFlags uint8

const (
	UnloadUnload UnloadFlags = 1 << iota
	UnloadTransfer
	UnloadNoUnload
)

// DepotAction describes what a vehicle does at a depot order.
type DepotAction int

const (
	DepotService DepotAction = iota
	DepotHalt
)

// ConditionVariable is the quantity a conditional order tests. Only
// ConditionAlways can be evaluated without running the vehicle.
type ConditionVariable int

const (
	ConditionLoadPercentage ConditionVariable = iota
	ConditionReliability
	ConditionMaxSpeed
	ConditionAge
	ConditionRequiresService
	ConditionAlways
	ConditionRemainingLifetime
)

// Order is one entry of a vehicle's order program. Orders are immutable while a
// refresh is running.
type Order struct {
	Index       int
	Type        OrderType
	Destination StationID
	// Refit is set when the order refits the vehicle to RefitCargo, which may
	// be CargoAutoRefit.
	Refit       bool
	RefitCargo  CargoID
	Load        LoadFlags
	Unload      UnloadFlags
	NoStop      bool
	DepotAction DepotAction
	Condition   ConditionVariable
	SkipTo      int
}

// IsType reports whether the order is of type t.
func (o *Order) IsType(t OrderType) bool { return o.Type == t }

// IsRefit reports whether the order refits the vehicle, automatically or not.
func (o *Order) IsRefit() bool { return o.Refit }

// IsAutoRefit reports whether the order refits to whatever cargo is waiting.
func (o *Order) IsAutoRefit() bool { return o.Refit && o.RefitCargo == CargoAutoRefit }

// CanLoadOrUnload reports whether the vehicle interacts with cargo at this order.
func (o *Order) CanLoadOrUnload() bool {
	return (o.IsType(OrderStation) || o.IsType(OrderImplicit)) &&
		!o.NoStop &&
		(o.Load&LoadNoLoad == 0 || o.Unload&UnloadNoUnload == 0)
}

// CanLeaveWithCargo reports whether the vehicle may leave the stop loaded.
// hadCargo tells whether cargo was on board on arrival.
func (o *Order) CanLeaveWithCargo(hadCargo bool) bool {
	return o.Load&LoadNoLoad == 0 ||
		(hadCargo && o.Unload&(UnloadUnload|UnloadTransfer) == 0)
}

// HandlesCargo reports whether stats can be collected at this order.
func (o *Order) HandlesCargo() bool {
	return o.IsType(OrderStation) || o.IsType(OrderImplicit)
}
