package conformance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioGoldens(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenarios found")

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err)

		t.Run(scenario.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestLoadScenarioRejectsUnnamed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps: []\n"), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no name")
}

func TestRunRejectsUnexpectedSuccess(t *testing.T) {
	scenario := &Scenario{
		Name: "unexpected-success",
		Steps: []Step{
			{Op: "InitLedger", As: "Org1MSP", Expect: &Expect{Error: "UNAUTHORIZED"}},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected error UNAUTHORIZED")
}

func TestRunRejectsUnexpectedError(t *testing.T) {
	scenario := &Scenario{
		Name: "unexpected-error",
		Steps: []Step{
			{Op: "ReadFlight", As: "Org1MSP", Args: []string{"XX999"}},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected error")
}

func TestRunRejectsWrongCode(t *testing.T) {
	scenario := &Scenario{
		Name: "wrong-code",
		Steps: []Step{
			{Op: "ReadFlight", As: "Org1MSP", Args: []string{"XX999"}, Expect: &Expect{Error: "UNAUTHORIZED"}},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got NOT_FOUND")
}

func TestRunTraceShape(t *testing.T) {
	scenario := &Scenario{
		Name: "trace-shape",
		Steps: []Step{
			{Op: "InitLedger", As: "Org1MSP"},
			{Op: "ReadFlight", As: "Org3MSP", Args: []string{"EC001"}},
			{Op: "DeleteFlight", As: "Org3MSP", Args: []string{"EC001"}, Expect: &Expect{Error: "UNAUTHORIZED"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Trace, 3)

	// Void success: no payload, no code.
	assert.Equal(t, 1, result.Trace[0].Seq)
	assert.Empty(t, result.Trace[0].Payload)
	assert.Empty(t, result.Trace[0].Code)

	// Success with payload.
	assert.Contains(t, string(result.Trace[1].Payload), `"flightNumber":"EC001"`)

	// Expected failure: code, no payload.
	assert.Equal(t, "UNAUTHORIZED", result.Trace[2].Code)
	assert.Empty(t, result.Trace[2].Payload)
}
