// Package journal keeps a queryable history of refresh sessions.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkv-git/openttd/core/linkgraph"
	"github.com/mkv-git/openttd/core/model"
	"github.com/mkv-git/openttd/core/refresh"
)

// ErrUnknownBackend is returned by NewStore for unsupported backends.
var ErrUnknownBackend = errors.New("journal: unknown backend")

// Record captures one refresh session and the updates it produced.
type Record struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	SessionID  string             `json:"session_id"`
	VehicleID  string             `json:"vehicle_id"`
	AllowMerge bool               `json:"allow_merge"`
	Hops       int                `json:"hops"`
	Branches   int                `json:"branches"`
	Updates    []linkgraph.Update `json:"updates"`
}

// FromSummary converts a refresh summary into a journal record.
func FromSummary(sum refresh.Summary) Record {
	return Record{
		ID:         uuid.NewString(),
		Timestamp:  sum.Started,
		SessionID:  sum.SessionID,
		VehicleID:  sum.VehicleID,
		AllowMerge: sum.AllowMerge,
		Hops:       sum.Hops,
		Branches:   sum.Branches,
		Updates:    sum.Updates,
	}
}

// Query defines filters for retrieving records. Zero values match anything.
type Query struct {
	Start     time.Time
	End       time.Time
	VehicleID string
	// Station keeps records with an update leaving or reaching the station.
	Station *model.StationID
	// Cargo keeps records with an update for the cargo.
	Cargo *model.CargoID
}

// Matches reports whether r passes every filter of q.
func (q Query) Matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.VehicleID != "" && r.VehicleID != q.VehicleID {
		return false
	}
	if q.Station == nil && q.Cargo == nil {
		return true
	}
	for _, u := range r.Updates {
		if q.Station != nil && u.From != *q.Station && u.To != *q.Station {
			continue
		}
		if q.Cargo != nil && u.Cargo != *q.Cargo {
			continue
		}
		return true
	}
	return false
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Config selects and configures the journal backend.
type Config struct {
	// Backend is one of "jsonl", "sqlite" or "none".
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "data/journal.db"
		default:
			c.Path = "data/journal.jsonl"
		}
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 3
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 7
	}
}

// Validate checks the backend and rotation settings.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite", "none":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.Backend != "none" && c.Path == "" {
		return fmt.Errorf("journal path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("journal rotation settings must not be negative")
	}
	return nil
}

// NewStore opens the backend selected by cfg.
func NewStore(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "jsonl":
		return NewJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "none":
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error { return nil }

func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }

func (NopStore) Close() error { return nil }
