package linkgraph

import "github.com/mkv-git/openttd/core/model"

// UpdateMode tells the flow graph whether cargo may actually be loaded along
// a refreshed link.
type UpdateMode int

const (
	// Unrestricted links carry cargo loaded at the origin.
	Unrestricted UpdateMode = iota
	// Restricted links only carry cargo already on board (no-load origin).
	Restricted
)

// String returns a human-readable representation of the update mode.
func (m UpdateMode) String() string {
	switch m {
	case Unrestricted:
		return "unrestricted"
	case Restricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// Update is one capacity estimate pushed to the flow graph.
type Update struct {
	From     model.StationID `json:"from"`
	To       model.StationID `json:"to"`
	Cargo    model.CargoID   `json:"cargo"`
	Capacity uint            `json:"capacity"`
	Mode     UpdateMode      `json:"mode"`
}

// Gateway is the flow graph as seen by the link refresher.
type Gateway interface {
	// IncreaseStats records that a vehicle will carry capacity units of cargo
	// from one station to another.
	IncreaseStats(from model.StationID, cargo model.CargoID, to model.StationID, capacity uint, mode UpdateMode)
	// SameComponent reports whether both stations already belong to the same
	// flow graph for cargo.
	SameComponent(a, b model.StationID, cargo model.CargoID) bool
}

// StationValidator is implemented by gateways that know which stations exist.
// Without it any station id other than model.InvalidStation is accepted.
type StationValidator interface {
	IsValidStation(id model.StationID) bool
}

// ValidStation resolves station validity through gw when it can.
func ValidStation(gw Gateway, id model.StationID) bool {
	if !id.IsValid() {
		return false
	}
	if v, ok := gw.(StationValidator); ok {
		return v.IsValidStation(id)
	}
	return true
}
