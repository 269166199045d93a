// Package settings holds per-user display preferences for the report
// screens: which table columns and form sections are visible.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"

	"gopkg.in/yaml.v3"
)

type Preferences struct {
	Columns  map[string]bool `json:"columns" yaml:"columns"`
	Sections map[string]bool `json:"sections" yaml:"sections"`
}

// Defaults returns the built-in preferences.
func Defaults() Preferences {
	return Preferences{
		Columns: map[string]bool{
			"product":            true,
			"cavity":             true,
			"target_cycle":       true,
			"actual_cycle":       true,
			"part_weight":        true,
			"actual_part_weight": true,
			"shots_start":        true,
			"shots_end":          true,
			"target_qty":         true,
			"actual_qty":         true,
			"ok_prod_qty":        true,
			"ok_prod_kgs":        true,
			"ok_prod_percent":    true,
			"rej_kgs":            true,
			"lumps":              true,
			"run_time":           true,
			"down_time":          true,
			"stoppage_time":      true,
			"remark":             false,
		},
		Sections: map[string]bool{
			"changeover": true,
			"stoppages":  true,
			"summary":    true,
			"quality":    false,
		},
	}
}

// LoadDefaults reads YAML overrides on top of the built-in defaults.
// Keys not present in the built-in set are ignored.
func LoadDefaults(r io.Reader) (Preferences, error) {
	var p Preferences
	if err := yaml.NewDecoder(r).Decode(&p); err != nil && err != io.EOF {
		return Preferences{}, fmt.Errorf("decode ui defaults: %w", err)
	}
	return Merge(Defaults(), p), nil
}

// Merge overlays stored onto base. Only keys known to base survive.
func Merge(base, stored Preferences) Preferences {
	out := Preferences{Columns: maps.Clone(base.Columns), Sections: maps.Clone(base.Sections)}
	overlay(out.Columns, stored.Columns)
	overlay(out.Sections, stored.Sections)
	return out
}

func overlay(dst, src map[string]bool) {
	for k, v := range src {
		if _, ok := dst[k]; ok {
			dst[k] = v
		}
	}
}

// Store persists raw preference documents per user.
type Store interface {
	LoadSettings(ctx context.Context, userID int) ([]byte, error)
	SaveSettings(ctx context.Context, userID int, doc []byte) error
}

// Manager applies the load/merge/save contract over a Store.
type Manager struct {
	defaults Preferences
	store    Store
}

func NewManager(defaults Preferences, store Store) *Manager {
	return &Manager{defaults: defaults, store: store}
}

func (m *Manager) Defaults() Preferences {
	return Merge(m.defaults, Preferences{})
}

// Load returns the user's preferences merged over the defaults. A user
// with nothing stored gets the defaults.
func (m *Manager) Load(ctx context.Context, userID int) (Preferences, error) {
	doc, err := m.store.LoadSettings(ctx, userID)
	if err != nil {
		return Preferences{}, err
	}
	if len(doc) == 0 {
		return m.Defaults(), nil
	}
	var stored Preferences
	if err := json.Unmarshal(doc, &stored); err != nil {
		return Preferences{}, fmt.Errorf("decode settings for user %d: %w", userID, err)
	}
	return Merge(m.defaults, stored), nil
}

// Save merges p over the defaults and stores the result.
func (m *Manager) Save(ctx context.Context, userID int, p Preferences) (Preferences, error) {
	merged := Merge(m.defaults, p)
	doc, err := json.Marshal(merged)
	if err != nil {
		return Preferences{}, err
	}
	if err := m.store.SaveSettings(ctx, userID, doc); err != nil {
		return Preferences{}, err
	}
	return merged, nil
}
