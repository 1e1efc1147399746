// Package scenario loads station networks and vehicles from YAML so link
// refreshes can be run outside a live game.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkv-git/openttd/core/model"
)

var (
	// ErrUnknownStation is returned when a link or order names a station
	// that is not declared.
	ErrUnknownStation = errors.New("scenario: unknown station")
	// ErrInvalidValue is returned for unknown enum values.
	ErrInvalidValue = errors.New("scenario: invalid value")
)

// Scenario is the YAML document.
type Scenario struct {
	Name       string            `yaml:"name"`
	AllowMerge bool              `yaml:"allow_merge"`
	Stations   []model.StationID `yaml:"stations"`
	Links      []Link            `yaml:"links"`
	Vehicles   []Vehicle         `yaml:"vehicles"`
	Expected   []Expectation     `yaml:"expected"`
}

// Link seeds the flow graph before any refresh.
type Link struct {
	From     model.StationID `yaml:"from"`
	To       model.StationID `yaml:"to"`
	Cargo    model.CargoID   `yaml:"cargo"`
	Capacity uint            `yaml:"capacity"`
}

// Vehicle describes a consist and its order program.
type Vehicle struct {
	ID                 string           `yaml:"id"`
	Kind               string           `yaml:"kind"`
	LastLoadingStation *model.StationID `yaml:"last_loading_station"`
	CurrentOrder       int              `yaml:"current_order"`
	Units              []Unit           `yaml:"units"`
	Orders             []Order          `yaml:"orders"`
}

// Unit is one part of a consist. RefitCapacity defaults to Capacity.
type Unit struct {
	Cargo         model.CargoID           `yaml:"cargo"`
	Capacity      uint                    `yaml:"capacity"`
	RefitCapacity *uint                   `yaml:"refit_capacity"`
	Secondary     uint                    `yaml:"secondary"`
	Refits        map[model.CargoID]Refit `yaml:"refits"`
}

// Refit is the capacity a unit offers after refitting to one cargo.
type Refit struct {
	Primary   uint `yaml:"primary"`
	Secondary uint `yaml:"secondary"`
}

// Order is one entry of the order program.
type Order struct {
	Type        string          `yaml:"type"`
	Destination model.StationID `yaml:"destination"`
	Refit       *model.CargoID  `yaml:"refit"`
	AutoRefit   bool            `yaml:"auto_refit"`
	Load        string          `yaml:"load"`
	Unload      string          `yaml:"unload"`
	NoStop      bool            `yaml:"no_stop"`
	Halt        bool            `yaml:"halt"`
	Condition   string          `yaml:"condition"`
	SkipTo      int             `yaml:"skip_to"`
}

// Expectation is a link update the scenario is expected to produce.
type Expectation struct {
	From     model.StationID `yaml:"from"`
	To       model.StationID `yaml:"to"`
	Cargo    model.CargoID   `yaml:"cargo"`
	Capacity uint            `yaml:"capacity"`
	Mode     string          `yaml:"mode"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer func() { _ = f.Close() }()
	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode parses a scenario document. Unknown fields are rejected.
func Decode(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &s, nil
}
