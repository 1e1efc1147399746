package model

import "strconv"

// CargoID identifies a cargo type. Valid cargo types are below CargoAutoRefit.
type CargoID uint8

const (
	// CargoAutoRefit asks the vehicle to refit to whatever cargo is waiting.
	CargoAutoRefit CargoID = 0xFD
	// CargoInvalid marks the absence of a cargo.
	CargoInvalid CargoID = 0xFF
)

// IsValid reports whether c names a real cargo type.
func (c CargoID) IsValid() bool { return c < CargoAutoRefit }

func (c CargoID) String() string {
	switch c {
	case CargoAutoRefit:
		return "auto"
	case CargoInvalid:
		return "invalid"
	default:
		return strconv.Itoa(int(c))
	}
}

// StationID identifies a station in the flow graph.
type StationID uint16

// InvalidStation is the zero-information station id.
const InvalidStation StationID = 0xFFFF

// IsValid reports whether s can refer to a station.
func (s StationID) IsValid() bool { return s != InvalidStation }

func (s StationID) String() string {
	if s == InvalidStation {
		return "invalid"
	}
	return strconv.Itoa(int(s))
}
