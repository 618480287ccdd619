// Package examples loads the catalog of ready-made domain and visual programs.
package examples

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Example is one catalog entry.
type Example struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description" yaml:"description"`
	DomainLanguage string `json:"domainLanguage" yaml:"domainLanguage"`
	VisualLanguage string `json:"visualLanguage" yaml:"visualLanguage"`
}

// rawExample tells a missing field apart from an empty one.
type rawExample struct {
	ID             *string `json:"id" yaml:"id"`
	Name           *string `json:"name" yaml:"name"`
	Description    *string `json:"description" yaml:"description"`
	DomainLanguage *string `json:"domainLanguage" yaml:"domainLanguage"`
	VisualLanguage *string `json:"visualLanguage" yaml:"visualLanguage"`
}

func (r rawExample) example() (Example, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"id", r.ID},
		{"name", r.Name},
		{"description", r.Description},
		{"domainLanguage", r.DomainLanguage},
		{"visualLanguage", r.VisualLanguage},
	}
	for _, f := range fields {
		if f.value == nil {
			return Example{}, fmt.Errorf("missing field %q", f.name)
		}
	}
	ex := Example{
		ID:             *r.ID,
		Name:           *r.Name,
		Description:    *r.Description,
		DomainLanguage: *r.DomainLanguage,
		VisualLanguage: *r.VisualLanguage,
	}
	return ex, ex.Validate()
}

// Validate checks the fields every example needs.
func (e Example) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("example id is empty")
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("example %s has no name", e.ID)
	}
	return nil
}

// Catalog is an immutable, id-ordered set of examples.
type Catalog struct {
	examples []Example
	byID     map[string]int
}

// NewCatalog builds a catalog from examples. Later duplicates of an id are dropped.
func NewCatalog(examples []Example) *Catalog {
	c := &Catalog{byID: make(map[string]int)}
	for _, ex := range examples {
		if _, dup := c.byID[ex.ID]; dup {
			slog.Warn("duplicate example id", "id", ex.ID)
			continue
		}
		c.byID[ex.ID] = -1
		c.examples = append(c.examples, ex)
	}
	sort.Slice(c.examples, func(i, j int) bool { return c.examples[i].ID < c.examples[j].ID })
	for i, ex := range c.examples {
		c.byID[ex.ID] = i
	}
	return c
}

// All returns a copy of every example, ordered by id.
func (c *Catalog) All() []Example {
	out := make([]Example, len(c.examples))
	copy(out, c.examples)
	return out
}

// Get returns the example with the given id.
func (c *Catalog) Get(id string) (Example, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Example{}, false
	}
	return c.examples[i], true
}

// Len returns the number of examples.
func (c *Catalog) Len() int {
	return len(c.examples)
}

// Load reads every *.json, *.yaml and *.yml file in dir. Files that fail to
// parse or validate are skipped with a warning. A missing directory yields
// an empty catalog.
func Load(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		slog.Info("examples directory not found", "dir", dir)
		return NewCatalog(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read examples dir: %w", err)
	}

	var loaded []Example
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}

		ex, err := loadFile(path, ext)
		if err != nil {
			slog.Warn("skipping invalid example", "file", path, "error", err)
			continue
		}
		loaded = append(loaded, ex)
	}

	catalog := NewCatalog(loaded)
	slog.Info("examples loaded", "dir", dir, "count", catalog.Len())
	return catalog, nil
}

func loadFile(path, ext string) (Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Example{}, err
	}

	var raw rawExample
	if ext == ".json" {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return Example{}, fmt.Errorf("decode: %w", err)
	}
	return raw.example()
}
