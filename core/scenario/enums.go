package scenario

import (
	"fmt"

	"github.com/mkv-git/openttd/core/linkgraph"
	"github.com/mkv-git/openttd/core/model"
)

func parseKind(s string) (model.VehicleKind, error) {
	switch s {
	case "", "train":
		return model.KindTrain, nil
	case "road":
		return model.KindRoad, nil
	case "ship":
		return model.KindShip, nil
	case "aircraft":
		return model.KindAircraft, nil
	}
	return 0, fmt.Errorf("%w: vehicle kind %q", ErrInvalidValue, s)
}

func parseOrderType(s string) (model.OrderType, error) {
	switch s {
	case "station":
		return model.OrderStation, nil
	case "depot":
		return model.OrderDepot, nil
	case "waypoint":
		return model.OrderWaypoint, nil
	case "implicit":
		return model.OrderImplicit, nil
	case "conditional":
		return model.OrderConditional, nil
	}
	return 0, fmt.Errorf("%w: order type %q", ErrInvalidValue, s)
}

func parseCondition(s string) (model.ConditionVariable, error) {
	switch s {
	case "":
		return 0, fmt.Errorf("%w: conditional order needs a condition", ErrInvalidValue)
	case "load_percentage":
		return model.ConditionLoadPercentage, nil
	case "reliability":
		return model.ConditionReliability, nil
	case "max_speed":
		return model.ConditionMaxSpeed, nil
	case "age":
		return model.ConditionAge, nil
	case "requires_service":
		return model.ConditionRequiresService, nil
	case "always":
		return model.ConditionAlways, nil
	case "remaining_lifetime":
		return model.ConditionRemainingLifetime, nil
	}
	return 0, fmt.Errorf("%w: condition %q", ErrInvalidValue, s)
}

func parseLoad(s string) (model.LoadFlags, error) {
	switch s {
	case "":
		return 0, nil
	case "full":
		return model.LoadFullLoad, nil
	case "none":
		return model.LoadNoLoad, nil
	}
	return 0, fmt.Errorf("%w: load %q", ErrInvalidValue, s)
}

func parseUnload(s string) (model.UnloadFlags, error) {
	switch s {
	case "":
		return 0, nil
	case "unload":
		return model.UnloadUnload, nil
	case "transfer":
		return model.UnloadTransfer, nil
	case "none":
		return model.UnloadNoUnload, nil
	}
	return 0, fmt.Errorf("%w: unload %q", ErrInvalidValue, s)
}

func parseMode(s string) (linkgraph.UpdateMode, error) {
	switch s {
	case "", "unrestricted":
		return linkgraph.Unrestricted, nil
	case "restricted":
		return linkgraph.Restricted, nil
	}
	return 0, fmt.Errorf("%w: mode %q", ErrInvalidValue, s)
}
