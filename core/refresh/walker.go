package refresh

import (
	"github.com/mkv-git/openttd/core/linkgraph"
	"github.com/mkv-git/openttd/core/model"
)

// session is the state shared by every branch of one Run.
type session struct {
	id         string
	gateway    linkgraph.Gateway
	allowMerge bool
	hops       *HopSet
	branches   int
	mergeSkips int
	updates    []linkgraph.Update
}

// walker follows one path through the order program. Forks copy the tracker
// and the active cargo but share the session.
type walker struct {
	orders  model.OrderProgram
	session *session
	tracker *CapacityTracker
	cargo   model.CargoID
}

func (w *walker) fork() *walker {
	w.session.branches++
	return &walker{
		orders:  w.orders,
		session: w.session,
		tracker: w.tracker.Clone(),
		cargo:   w.cargo,
	}
}

// refreshLinks walks from cur/next until the path leaves the program or runs
// into a hop that was already seen. cur is always the last cargo stop; next
// is the order being evaluated.
func (w *walker) refreshLinks(cur, next *model.Order, f flags, hops uint) {
	for next != nil {
		// Auto refits keep the current cargo.
		if (next.IsType(model.OrderDepot) || next.IsType(model.OrderStation)) &&
			next.IsRefit() && !next.IsAutoRefit() {
			f.wasRefit = true
			w.handleRefit(next)
		}

		f.resetRefit = f.wasRefit && next.HandlesCargo()

		next = w.predictNextOrder(cur, next, f, hops)
		if next == nil {
			break
		}
		if !w.session.hops.Insert(Hop{From: cur.Index, To: next.Index, Cargo: w.cargo}) {
			break
		}
		f.useNext = false

		if !next.HandlesCargo() {
			continue
		}
		if f.resetRefit {
			w.tracker.ResetRefit()
			f.resetRefit = false
			f.wasRefit = false
		}
		if cur.HandlesCargo() {
			if cur.CanLeaveWithCargo(f.hasCargo) {
				f.hasCargo = true
				w.refreshStats(cur, next)
			} else {
				f.hasCargo = false
			}
		}
		cur = next
	}
}

// predictNextOrder returns the next order the vehicle would act on. Every
// conditional passed on the way spawns a branch for its jump target. f is a
// private copy; the branches inherit useNext from it.
func (w *walker) predictNextOrder(cur, next *model.Order, f flags, hops uint) *model.Order {
	for next != nil && (!f.useNext || next.IsType(model.OrderConditional)) {
		f.useNext = true
		if next.IsType(model.OrderConditional) {
			skipTo := w.orders.NextDecisionNode(w.orders.OrderAt(next.SkipTo), hops)
			if skipTo != nil && hops < w.orders.NumOrders() {
				w.fork().refreshLinks(cur, skipTo, f, hops+1)
			}
		}
		next = w.orders.NextDecisionNode(w.orders.Next(next), hops)
		hops++
	}
	return next
}

func (w *walker) handleRefit(next *model.Order) {
	w.cargo = next.RefitCargo
	w.tracker.ApplyRefit(next.RefitCargo)
}

// refreshStats pushes the predicted capacity of every cargo for cur -> next.
func (w *walker) refreshStats(cur, next *model.Order) {
	s := w.session
	from, to := cur.Destination, next.Destination
	if from == to || !linkgraph.ValidStation(s.gateway, from) || !linkgraph.ValidStation(s.gateway, to) {
		return
	}
	mode := linkgraph.Unrestricted
	if cur.Load&model.LoadNoLoad != 0 {
		mode = linkgraph.Restricted
	}
	for _, c := range w.tracker.Cargoes() {
		if !s.allowMerge && !s.gateway.SameComponent(from, to, c) {
			s.mergeSkips++
			continue
		}
		amount := w.tracker.Capacity(c)
		s.gateway.IncreaseStats(from, c, to, amount, mode)
		s.updates = append(s.updates, linkgraph.Update{From: from, To: to, Cargo: c, Capacity: amount, Mode: mode})
	}
}
