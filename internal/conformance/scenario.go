// Package conformance runs declarative contract scenarios against a
// fresh in-memory ledger and compares the resulting trace against
// golden files. Scenarios are the executable form of the contract's
// documented behavior: seat settlement order, authorization, error
// codes, idempotence.
package conformance

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/flynet/internal/contract"
	"github.com/roach88/flynet/internal/host"
	"github.com/roach88/flynet/internal/identity"
	"github.com/roach88/flynet/internal/state"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario; the golden file is
	// testdata/golden/<name>.golden.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Steps are submitted in order against one fresh ledger.
	Steps []Step `yaml:"steps"`
}

// Step is one submitted invocation.
type Step struct {
	// Op is the operation name (e.g. "ReserveSeats").
	Op string `yaml:"op"`

	// As is the submitting organization tag.
	As string `yaml:"as"`

	// Args are the positional operation arguments.
	Args []string `yaml:"args,omitempty"`

	// Expect declares the expected outcome. Steps without an Expect
	// clause must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect declares a step's expected failure.
type Expect struct {
	// Error is the expected contract error code (e.g. "UNAUTHORIZED").
	Error string `yaml:"error"`
}

// TraceEvent records one step's outcome. Payload holds the canonical
// success payload text, Code the contract error code on failure.
type TraceEvent struct {
	Seq     int
	Op      string
	Org     string
	Payload []byte
	Code    string
}

// Result holds the trace of a scenario execution.
type Result struct {
	Trace []TraceEvent
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("load scenario: parse %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("load scenario: %s has no name", path)
	}
	return &s, nil
}

// Run executes a scenario against a fresh in-memory ledger.
// Each step's outcome is validated against its Expect clause; a
// mismatch fails the run immediately.
func Run(scenario *Scenario) (*Result, error) {
	ledger, err := host.NewLedger(
		state.NewMemoryState(),
		host.NewMemoryJournal(),
		identity.DefaultNetwork(),
	)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, step := range scenario.Steps {
		seq := i + 1
		payload, err := ledger.Submit(step.As, step.Op, step.Args)

		event := TraceEvent{Seq: seq, Op: step.Op, Org: step.As}
		switch {
		case err == nil && step.Expect == nil:
			event.Payload = payload
		case err == nil && step.Expect != nil:
			return nil, fmt.Errorf("step %d (%s): expected error %s, got success", seq, step.Op, step.Expect.Error)
		case err != nil && step.Expect == nil:
			return nil, fmt.Errorf("step %d (%s): unexpected error: %w", seq, step.Op, err)
		default:
			code := contract.CodeOf(err)
			if string(code) != step.Expect.Error {
				return nil, fmt.Errorf("step %d (%s): expected error %s, got %s", seq, step.Op, step.Expect.Error, code)
			}
			event.Code = string(code)
		}
		result.Trace = append(result.Trace, event)
	}
	return result, nil
}
