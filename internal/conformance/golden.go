package conformance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/flynet/internal/canonical"
)

// RunWithGolden executes a scenario and compares its canonical trace
// against testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/conformance -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	traceJSON, err := marshalTrace(scenario.Name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)
	return nil
}

// marshalTrace produces the canonical byte form of a trace. Success
// payloads are themselves canonical JSON, so they are re-parsed and
// embedded as values rather than quoted strings.
func marshalTrace(name string, result *Result) ([]byte, error) {
	trace := make(canonical.Array, len(result.Trace))
	for i, event := range result.Trace {
		obj := canonical.Object{
			"seq": canonical.Int(event.Seq),
			"op":  canonical.String(event.Op),
			"org": canonical.String(event.Org),
		}
		if event.Code != "" {
			obj["code"] = canonical.String(event.Code)
		}
		if len(event.Payload) > 0 {
			val, err := parsePayload(event.Payload)
			if err != nil {
				return nil, fmt.Errorf("trace event %d: %w", event.Seq, err)
			}
			obj["payload"] = val
		}
		trace[i] = obj
	}

	return canonical.Marshal(canonical.Object{
		"scenario": canonical.String(name),
		"trace":    trace,
	})
}

func parsePayload(payload []byte) (canonical.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	return canonical.FromGo(raw)
}
