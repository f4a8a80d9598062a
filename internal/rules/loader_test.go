package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autosentience/vigil/internal/models"
)

func writeRulesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRules_Valid(t *testing.T) {
	path := writeRulesFile(t, `
schema_version: v1
rules:
  - parameter: engine_temp
    max: 110
    severity: HIGH
    message: Engine temperature critically high
  - parameter: oil_pressure
    min: 20
    severity: CRITICAL
    message: Oil pressure critically low
  - parameter: tyre_pressure_fl
    min: 28
    max: 40
    severity: MEDIUM
    message: Front left tyre pressure abnormal
`)

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 3)

	// File order is preserved.
	assert.Equal(t, "engine_temp", rules[0].Parameter)
	require.NotNil(t, rules[0].Max)
	assert.Equal(t, 110.0, *rules[0].Max)
	assert.Nil(t, rules[0].Min)

	assert.Equal(t, models.SeverityCritical, rules[1].Severity)

	require.NotNil(t, rules[2].Min)
	require.NotNil(t, rules[2].Max)
}

func TestLoadRules_FileNotFound(t *testing.T) {
	_, err := LoadRules("/nonexistent/rules.yaml")
	assert.Error(t, err)
}

func TestLoadRules_InvalidSchemaVersion(t *testing.T) {
	path := writeRulesFile(t, `
schema_version: v2
rules:
  - parameter: engine_temp
    max: 110
    severity: HIGH
    message: too hot
`)
	_, err := LoadRules(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema_version")
}

func TestLoadRules_ValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing parameter",
			yaml: `
schema_version: v1
rules:
  - max: 110
    severity: HIGH
    message: too hot
`,
			wantErr: "parameter is required",
		},
		{
			name: "no bounds",
			yaml: `
schema_version: v1
rules:
  - parameter: engine_temp
    severity: HIGH
    message: too hot
`,
			wantErr: "at least one of min or max",
		},
		{
			name: "min above max",
			yaml: `
schema_version: v1
rules:
  - parameter: tyre_pressure_fl
    min: 40
    max: 28
    severity: MEDIUM
    message: abnormal
`,
			wantErr: "exceeds max",
		},
		{
			name: "bad severity",
			yaml: `
schema_version: v1
rules:
  - parameter: engine_temp
    max: 110
    severity: SEVERE
    message: too hot
`,
			wantErr: "invalid severity",
		},
		{
			name: "missing message",
			yaml: `
schema_version: v1
rules:
  - parameter: engine_temp
    max: 110
    severity: HIGH
`,
			wantErr: "message is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeRulesFile(t, tc.yaml)
			_, err := LoadRules(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDefaultRulesAreValid(t *testing.T) {
	rf := RulesFile{SchemaVersion: "v1", Rules: DefaultRules()}
	assert.NoError(t, rf.Validate())
	assert.Len(t, rf.Rules, 18)
}
