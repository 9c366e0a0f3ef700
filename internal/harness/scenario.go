package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario: an ordered sequence of storage
// operations with expected results, run against a fresh database.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Driver selects the storage driver. Empty means sqlite3. An
	// unregistered name exercises the unsupported-environment path.
	Driver string `yaml:"driver,omitempty"`

	// Steps is the operation sequence.
	Steps []Step `yaml:"steps"`
}

// Step is one storage operation with optional expectations. Ops mirror the
// public facade: initialize, isready, issupported, close, get, set, delete,
// keys, getall, count, clear.
type Step struct {
	Op    string `yaml:"op"`
	Store string `yaml:"store,omitempty"`
	Key   string `yaml:"key,omitempty"`
	Value any    `yaml:"value,omitempty"`

	// Expectations. Only the ones matching the op are consulted.
	Want       any      `yaml:"want,omitempty"`        // expected get result
	WantAbsent bool     `yaml:"want_absent,omitempty"` // get must miss
	WantOK     *bool    `yaml:"want_ok,omitempty"`     // expected bool result
	WantCount  *int     `yaml:"want_count,omitempty"`  // expected count
	WantKeys   []string `yaml:"want_keys,omitempty"`   // expected key list
}

// LoadScenario reads one scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: missing name", path)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s: no steps", path)
	}
	return &sc, nil
}
