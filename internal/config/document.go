package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/javanstorm/substance/internal/fsutil"
)

// DefaultDocument is written when no document exists yet.
func DefaultDocument() map[string]any {
	return map[string]any{"default": true}
}

// Document is the flat key-value substance.yml file. It is read on first
// access; a missing file is generated with DefaultDocument.
type Document struct {
	path   string
	values map[string]any
}

// NewDocument returns a Document backed by path. Nothing is read yet.
func NewDocument(path string) *Document {
	return &Document{path: path}
}

// Path returns the backing file path.
func (d *Document) Path() string { return d.path }

// Values returns the whole document, reading or generating it first.
func (d *Document) Values() (map[string]any, error) {
	if err := d.load(); err != nil {
		return nil, err
	}
	return d.values, nil
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (any, bool, error) {
	if err := d.load(); err != nil {
		return nil, false, err
	}
	v, ok := d.values[key]
	return v, ok, nil
}

// Set stores value under key in memory. Call Save to persist.
func (d *Document) Set(key string, value any) error {
	if err := d.load(); err != nil {
		return err
	}
	d.values[key] = value
	return nil
}

// Keys returns the document keys in sorted order.
func (d *Document) Keys() ([]string, error) {
	if err := d.load(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(d.values))
	for k := range d.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Save writes the in-memory document to disk.
func (d *Document) Save() error {
	if err := d.load(); err != nil {
		return err
	}
	return d.write(d.values)
}

func (d *Document) load() error {
	if d.values != nil {
		return nil
	}
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		values := DefaultDocument()
		if err := d.write(values); err != nil {
			return err
		}
		d.values = values
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", d.path, err)
	}

	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse %s: %w", d.path, err)
	}
	if values == nil {
		values = map[string]any{}
	}
	d.values = values
	return nil
}

func (d *Document) write(values map[string]any) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", d.path, err)
	}
	if err := fsutil.AtomicWrite(d.path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	return nil
}

// ParseValue converts command-line text into a typed YAML scalar, so that
// "true" is stored as a boolean and "3" as an integer.
func ParseValue(raw string) any {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return raw
	}
	switch v.(type) {
	case map[string]any, []any:
		return raw
	}
	return v
}
