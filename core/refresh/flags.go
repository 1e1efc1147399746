package refresh

// flags carry state from one predicted hop to the next. They are passed by
// value so a branch never sees changes made by its parent or siblings.
type flags struct {
	// useNext accepts the next non-conditional order without advancing.
	useNext bool
	// wasRefit is set after a refit order until the refit is reset.
	wasRefit bool
	// resetRefit schedules restoring capacities at the next cargo stop.
	resetRefit bool
	// hasCargo tells whether the vehicle left the last stop loaded.
	hasCargo bool
}
