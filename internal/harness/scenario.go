package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/esquery/internal/compiler"
)

// Scenario defines one query scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Index is the index documents are loaded into and queries run against.
	Index string `yaml:"index"`

	// Documents are indexed in order. A document's "id" field becomes its
	// document id.
	Documents []map[string]any `yaml:"documents"`

	// Queries run in order against the loaded index.
	Queries []QueryCase `yaml:"queries"`
}

// Operations a query case can run.
const (
	OpSearch = "search"
	OpCount  = "count"
	OpGroup  = "group"
	OpFirst  = "first"
)

// QueryCase is one query and its expected outcome.
type QueryCase struct {
	Name string `yaml:"name"`

	// Op defaults to group when the query groups, search otherwise.
	Op string `yaml:"op,omitempty"`

	Query compiler.Document `yaml:"query"`

	Expect ExpectClause `yaml:"expect"`
}

// ExpectClause lists the checks for one query. Only the set fields are
// checked.
type ExpectClause struct {
	// Count is the count result, or the number of items a search or
	// first returned.
	Count *int64 `yaml:"count,omitempty"`

	// IDs are the ids of the returned documents, in order.
	IDs []string `yaml:"ids,omitempty"`

	// Total is the search's total match count.
	Total *int64 `yaml:"total,omitempty"`

	// Values are the projected values of a select query, in order.
	Values []any `yaml:"values,omitempty"`

	// Groups is the number of groups.
	Groups *int `yaml:"groups,omitempty"`

	// GroupKeys are the group keys, in order, as property/value maps.
	GroupKeys []map[string]any `yaml:"group_keys,omitempty"`

	// GroupCounts are the per-group document counts, in order.
	GroupCounts []int64 `yaml:"group_counts,omitempty"`

	// Error is the expected error code. When set, the query must fail.
	Error string `yaml:"error,omitempty"`
}

// op resolves the operation to run.
func (q *QueryCase) op() string {
	if q.Op != "" {
		return q.Op
	}
	if len(q.Query.GroupBy) > 0 {
		return OpGroup
	}
	return OpSearch
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the .yaml/.yml files under dir, sorted. A
// non-empty filter is a glob matched against file names without the
// extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(d.Name(), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Index == "" {
		return fmt.Errorf("index is required")
	}
	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Queries))
	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if seen[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		seen[q.Name] = true

		switch q.op() {
		case OpSearch, OpCount, OpGroup, OpFirst:
		default:
			return fmt.Errorf("queries[%d]: unknown op %q", i, q.Op)
		}
	}
	return nil
}
