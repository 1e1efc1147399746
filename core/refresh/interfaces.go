package refresh

import "github.com/mkv-git/openttd/core/model"

// Vehicle is what the refresher needs to know about a consist. *model.Vehicle
// implements it.
type Vehicle interface {
	ID() string
	Kind() model.VehicleKind
	// Orders returns nil when the vehicle has no order program.
	Orders() model.OrderProgram
	CurImplicitOrderIndex() int
	// LastLoadingStation is model.InvalidStation when nothing is on board.
	LastLoadingStation() model.StationID
	Units() []model.Unit
}
