package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinScenarios_NamesUniqueAndFindable(t *testing.T) {
	scenarios := BuiltinScenarios()
	require.NotEmpty(t, scenarios)

	seen := make(map[string]bool)
	for _, s := range scenarios {
		assert.False(t, seen[s.Name], "duplicate scenario %q", s.Name)
		seen[s.Name] = true

		found, ok := FindScenario(scenarios, s.Name)
		require.True(t, ok)
		assert.Equal(t, s.Description, found.Description)
	}

	_, ok := FindScenario(scenarios, "no-such-scenario")
	assert.False(t, ok)
}

func TestLoadScenarios_YAML(t *testing.T) {
	content := `
- name: custom-case
  description: supplied by operator
  request:
    intent: rescore
    customer_id: C900
    customer_features:
      txn_count: 10
      avg_txn_amount: 250.5
      high_risk_country: 1
`
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	scenarios, err := LoadScenarios(path)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)

	s := scenarios[0]
	assert.Equal(t, "custom-case", s.Name)
	assert.Equal(t, "C900", s.Request.CustomerID)
	require.NotNil(t, s.Request.CustomerFeatures)
	require.NotNil(t, s.Request.CustomerFeatures.TxnCount)
	assert.Equal(t, 10, *s.Request.CustomerFeatures.TxnCount)
	require.NotNil(t, s.Request.CustomerFeatures.AvgTxnAmount)
	assert.InDelta(t, 250.5, *s.Request.CustomerFeatures.AvgTxnAmount, 1e-9)
}

func TestLoadScenarios_MissingFile(t *testing.T) {
	_, err := LoadScenarios(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
