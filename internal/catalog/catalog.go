// Package catalog holds the player-card field definitions. The YAML file is
// embedded so the API can validate card fields without a database round
// trip, and `ingest seed fields` writes the same entries to Postgres.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/StevenLove/fantazy/internal/nfl"
)

//go:embed fields.yaml
var fieldsYAML []byte

// Field is one selectable card field.
type Field struct {
	Key         string         `yaml:"key"`
	Label       string         `yaml:"label"`
	Description string         `yaml:"description"`
	DataType    string         `yaml:"data_type"`
	Category    string         `yaml:"category"`
	Timeframe   string         `yaml:"timeframe"`
	Format      string         `yaml:"format"`
	Positions   []nfl.Position `yaml:"positions"`
	SortOrder   int            `yaml:"-"`
}

// HasPosition reports whether the field applies to p.
func (f Field) HasPosition(p nfl.Position) bool {
	for _, fp := range f.Positions {
		if fp == p {
			return true
		}
	}
	return false
}

type file struct {
	Fields []Field `yaml:"fields"`
}

// Catalog is an ordered, key-indexed set of fields.
type Catalog struct {
	fields []Field
	byKey  map[string]int
}

// Parse decodes and validates a catalog document. Sort order is assigned
// from document order in steps of 10.
func Parse(data []byte) (*Catalog, error) {
	var doc file
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode field catalog: %w", err)
	}
	c := &Catalog{byKey: make(map[string]int, len(doc.Fields))}
	for i, f := range doc.Fields {
		if err := validate(f); err != nil {
			return nil, fmt.Errorf("field %d (%s): %w", i, f.Key, err)
		}
		if _, dup := c.byKey[f.Key]; dup {
			return nil, fmt.Errorf("duplicate field key %q", f.Key)
		}
		f.SortOrder = (i + 1) * 10
		c.byKey[f.Key] = len(c.fields)
		c.fields = append(c.fields, f)
	}
	return c, nil
}

func validate(f Field) error {
	if f.Key == "" || f.Label == "" {
		return fmt.Errorf("key and label are required")
	}
	if _, err := nfl.ParseCategory(f.Category); err != nil {
		return err
	}
	if f.Timeframe != nfl.TimeframeBoth {
		if _, err := nfl.ParseTimeframe(f.Timeframe); err != nil {
			return err
		}
	}
	if len(f.Positions) == 0 {
		return fmt.Errorf("at least one position is required")
	}
	for _, p := range f.Positions {
		if _, err := nfl.ParsePosition(string(p)); err != nil {
			return err
		}
	}
	return nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog, parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(fieldsYAML)
	})
	return defaultCatalog, defaultErr
}

// Fields returns every field in sort order.
func (c *Catalog) Fields() []Field {
	return c.fields
}

// Lookup returns the field with key.
func (c *Catalog) Lookup(key string) (Field, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// Len returns the number of fields.
func (c *Catalog) Len() int {
	return len(c.fields)
}
