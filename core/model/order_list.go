package model

// OrderProgram exposes bounded lookups over a cyclic order program. None of
// its methods iterate the program unboundedly.
type OrderProgram interface {
	// NextDecisionNode returns the first order at or after next that matters
	// for routing, or nil. hops counts the orders already traversed.
	NextDecisionNode(next *Order, hops uint) *Order
	// Next returns the order following o, wrapping around at the end.
	Next(o *Order) *Order
	// OrderAt returns the order at index or nil when out of range.
	OrderAt(index int) *Order
	NumOrders() uint
}

// OrderList is the in-memory OrderProgram implementation.
type OrderList struct {
	orders []*Order
}

// NewOrderList copies the given orders and renumbers them by position.
func NewOrderList(orders ...Order) *OrderList {
	l := &OrderList{orders: make([]*Order, len(orders))}
	for i := range orders {
		o := orders[i]
		o.Index = i
		l.orders[i] = &o
	}
	return l
}

func (l *OrderList) NumOrders() uint { return uint(len(l.orders)) }

func (l *OrderList) OrderAt(index int) *Order {
	if index < 0 || index >= len(l.orders) {
		return nil
	}
	return l.orders[index]
}

func (l *OrderList) Next(o *Order) *Order {
	if o == nil || len(l.orders) == 0 {
		return nil
	}
	if o.Index+1 >= len(l.orders) {
		return l.orders[0]
	}
	return l.orders[o.Index+1]
}

// NextDecisionNode skips waypoints, pass-through stops and unconditional jumps.
// Depots end the prediction when the vehicle halts there and count as decision
// nodes when they refit.
func (l *OrderList) NextDecisionNode(next *Order, hops uint) *Order {
	if next == nil || hops > l.NumOrders() {
		return nil
	}
	if next.IsType(OrderConditional) {
		if next.Condition != ConditionAlways {
			return next
		}
		return l.NextDecisionNode(l.OrderAt(next.SkipTo), hops+1)
	}
	if next.IsType(OrderDepot) {
		if next.DepotAction == DepotHalt {
			return nil
		}
		if next.IsRefit() {
			return next
		}
	}
	if !next.CanLoadOrUnload() {
		return l.NextDecisionNode(l.Next(next), hops+1)
	}
	return next
}

// Orders returns a copy of the program.
func (l *OrderList) Orders() []Order {
	out := make([]Order, len(l.orders))
	for i, o := range l.orders {
		out[i] = *o
	}
	return out
}
