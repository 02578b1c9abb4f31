// Package model holds the declared schema model: the table layout the
// application expects, independent of any live database.
//
// A model is supplied as one or more fragments (typically one per domain
// area) that are merged into a single comparison target. Fragments are plain
// values constructed by the caller or loaded from YAML files; no reflective
// discovery happens here.
package model

import (
	"fmt"
	"os"
	"sort"

	"sigs.k8s.io/yaml"
)

// Schema is one model fragment.
type Schema struct {
	Tables []Table `json:"tables"`
}

// Table declares the desired shape of one table.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Column declares one column.
type Column struct {
	Name string `json:"name"`

	// Type is the column type as the target dialect spells it,
	// e.g. "bigint" or "varchar(255)".
	Type string `json:"type"`

	Nullable bool `json:"nullable"`

	// Default is the server-side default expression, empty for none.
	Default string `json:"default"`

	PrimaryKey bool `json:"primary_key"`
}

// Load reads one model fragment from a YAML file.
func Load(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model fragment: %w", err)
	}
	var s Schema
	if err := yaml.UnmarshalStrict(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing model fragment %s: %w", path, err)
	}
	return &s, nil
}

// LoadAll reads every fragment path in order.
func LoadAll(paths []string) ([]*Schema, error) {
	out := make([]*Schema, 0, len(paths))
	for _, p := range paths {
		s, err := Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Merge maps all fragments into a single target namespace. Tables are sorted
// by name so the merged schema is deterministic regardless of fragment order.
// Name collisions across fragments are the caller's responsibility and are
// not validated here; the last fragment wins.
func Merge(fragments ...*Schema) *Schema {
	byName := make(map[string]Table)
	for _, f := range fragments {
		if f == nil {
			continue
		}
		for _, t := range f.Tables {
			byName[t.Name] = t
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	merged := &Schema{Tables: make([]Table, 0, len(names))}
	for _, name := range names {
		merged.Tables = append(merged.Tables, byName[name])
	}
	return merged
}

// Table returns the declared table with the given name.
func (s *Schema) Table(name string) (Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
