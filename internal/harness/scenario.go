package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tessera/internal/core"
)

// Scenario is a vocabulary, the facts to assert and the queries to check.
type Scenario struct {
	// Name identifies the scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario covers.
	Description string `yaml:"description"`

	// Vocabulary is CUE source defining the attributes.
	Vocabulary string `yaml:"vocabulary"`

	// Facts are asserted in one transaction, in order.
	Facts []Fact `yaml:"facts,omitempty"`

	// Queries are run in order against the populated store.
	Queries []QueryCase `yaml:"queries"`
}

// Fact is one assertion. E names a tempid; exactly one of V (an EDN
// literal) and Ref (a tempid) gives the value.
type Fact struct {
	E   string `yaml:"e"`
	A   string `yaml:"a"`
	V   string `yaml:"v,omitempty"`
	Ref string `yaml:"ref,omitempty"`
}

// QueryCase is a query and its expected outcome.
type QueryCase struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`

	// Inputs maps :in variables to EDN literals.
	Inputs map[string]string `yaml:"inputs,omitempty"`

	// Limit caps the number of result rows; zero means unlimited.
	Limit int `yaml:"limit,omitempty"`

	// Exactly one of the following is set.
	Expect *string `yaml:"expect,omitempty"`
	Len    *int    `yaml:"len,omitempty"`
	Error  string  `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml file in dir, sorted by path.
// A non-empty filter is a glob matched against file names without their
// extension.
func LoadScenarios(dir, filter string) ([]*Scenario, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if strings.TrimSpace(s.Vocabulary) == "" {
		return fmt.Errorf("vocabulary is required")
	}

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	for i, f := range s.Facts {
		if f.E == "" {
			return fmt.Errorf("facts[%d]: e is required", i)
		}
		if _, err := core.ParseKeyword(f.A); err != nil {
			return fmt.Errorf("facts[%d]: a: %w", i, err)
		}
		if (f.V == "") == (f.Ref == "") {
			return fmt.Errorf("facts[%d]: exactly one of v and ref is required", i)
		}
	}

	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if strings.TrimSpace(q.Query) == "" {
			return fmt.Errorf("queries[%d]: query is required", i)
		}
		if q.Limit < 0 {
			return fmt.Errorf("queries[%d]: limit must not be negative", i)
		}
		checks := 0
		if q.Expect != nil {
			checks++
		}
		if q.Len != nil {
			checks++
		}
		if q.Error != "" {
			checks++
		}
		if checks != 1 {
			return fmt.Errorf("queries[%d]: exactly one of expect, len and error is required", i)
		}
	}

	return nil
}
