// Package suite runs many specifications as independent agent runs and
// collects their outcomes.
package suite

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Spec is one entry of a suite file.
type Spec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Target      string `yaml:"target"`
}

// File is the on-disk suite format. A top-level target applies to every
// spec that does not name its own.
type File struct {
	Target string `yaml:"target"`
	Specs  []Spec `yaml:"specs"`
}

// Load reads and validates a suite file.
func Load(path string) ([]Spec, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand suite path %s: %w", path, err)
	}
	raw, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a suite document, fills in defaults and validates it.
func Parse(raw []byte) ([]Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse suite file: %w", err)
	}
	for i := range f.Specs {
		if f.Specs[i].Target == "" {
			f.Specs[i].Target = f.Target
		}
	}
	return Validate(f.Specs)
}

// Validate trims descriptions, names unnamed specs and rejects empty or
// ambiguous entries. The input slice is not modified.
func Validate(in []Spec) ([]Spec, error) {
	if len(in) == 0 {
		return nil, errors.New("suite file contains no specs")
	}

	seen := make(map[string]int, len(in))
	specs := make([]Spec, 0, len(in))
	for i, s := range in {
		s.Description = strings.TrimSpace(s.Description)
		if s.Description == "" {
			return nil, fmt.Errorf("spec %d: description is required", i+1)
		}
		if s.Name == "" {
			s.Name = fmt.Sprintf("spec-%d", i+1)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("spec %d: name %q already used by spec %d", i+1, s.Name, prev)
		}
		seen[s.Name] = i + 1
		specs = append(specs, s)
	}
	return specs, nil
}
