package importer

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed layouts.yaml
var defaultLayouts []byte

// Column maps one report field to its header aliases. Fallback is used
// when none of the aliases is found; nil means the field is optional.
type Column struct {
	Aliases  []string `yaml:"aliases"`
	Fallback *int     `yaml:"fallback"`
}

// Layout describes one known workbook shape.
type Layout struct {
	Name           string            `yaml:"name"`
	Version        int               `yaml:"version"`
	HeaderLabels   []string          `yaml:"header_labels"`
	DateLabels     []string          `yaml:"date_labels"`
	ShiftLabels    []string          `yaml:"shift_labels"`
	InchargeLabels []string          `yaml:"incharge_labels"`
	Columns        map[string]Column `yaml:"columns"`
}

type Layouts struct {
	Layouts []Layout `yaml:"layouts"`
}

// LoadLayouts decodes a layouts document.
func LoadLayouts(r io.Reader) (*Layouts, error) {
	var ls Layouts
	if err := yaml.NewDecoder(r).Decode(&ls); err != nil {
		return nil, fmt.Errorf("decode layouts: %w", err)
	}
	for _, l := range ls.Layouts {
		if l.Name == "" || l.Version <= 0 {
			return nil, fmt.Errorf("layout %q: name and positive version required", l.Name)
		}
		if _, ok := l.Columns[FieldLineID]; !ok {
			return nil, fmt.Errorf("layout %s v%d: no %s column", l.Name, l.Version, FieldLineID)
		}
	}
	return &ls, nil
}

// DefaultLayouts returns the layouts compiled into the binary.
func DefaultLayouts() *Layouts {
	ls, err := LoadLayouts(bytes.NewReader(defaultLayouts))
	if err != nil {
		panic(err)
	}
	return ls
}

// Find returns the named layout. Version 0 selects the newest.
func (ls *Layouts) Find(name string, version int) (Layout, bool) {
	var best Layout
	found := false
	for _, l := range ls.Layouts {
		if l.Name != name {
			continue
		}
		if version > 0 {
			if l.Version == version {
				return l, true
			}
			continue
		}
		if !found || l.Version > best.Version {
			best, found = l, true
		}
	}
	return best, found
}
