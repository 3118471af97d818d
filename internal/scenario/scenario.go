// Package scenario runs YAML-scripted sequences of registry operations.
//
// Scenarios let test authors describe a pub/sub exchange as data instead of
// code: subscribe under a name, send, simulate traffic, then assert on the
// queue, subscriber counts and connectivity. A failing expectation aborts
// the run with the step number in the error.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Step is one scripted operation.
//
// Ops: connect, disconnect, drop, reconnect, subscribe, unsubscribe, send,
// simulate, clear, expect-queue, expect-count, expect-received,
// expect-connected.
type Step struct {
	Op      string `yaml:"op"`
	Channel string `yaml:"channel,omitempty"`
	Payload string `yaml:"payload,omitempty"`
	// As names a subscription for later unsubscribe / expect-received.
	As string `yaml:"as,omitempty"`
	// ExpectError inverts the send step: the step passes only when the
	// registry rejects the send.
	ExpectError bool `yaml:"expectError,omitempty"`
	// Assertion operands.
	Length    int  `yaml:"length,omitempty"`
	Count     int  `yaml:"count,omitempty"`
	Connected bool `yaml:"connected,omitempty"`
}

// Scenario is a named, ordered list of steps.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Load parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	for i, st := range sc.Steps {
		if st.Op == "" {
			return nil, fmt.Errorf("step %d: missing op", i+1)
		}
	}
	return &sc, nil
}
