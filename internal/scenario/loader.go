// -- internal/scenario/loader.go --
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates one scenario file. A missing name defaults to
// the file's base name, so small scripts do not need boilerplate.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	return parse(path, data)
}

// LoadAll reads a set of scenario files, failing on the first bad one.
func LoadAll(paths []string) ([]Scenario, error) {
	scenarios := make([]Scenario, 0, len(paths))
	for _, path := range paths {
		sc, err := Load(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func parse(path string, data []byte) (Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	// Unknown keys are almost always typos of optional keys; reject them
	// instead of silently running a different scenario than written.
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return Scenario{}, fmt.Errorf("scenario: parse %s: %w", path, err)
	}

	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("scenario: %s: %w", path, err)
	}
	return sc, nil
}
