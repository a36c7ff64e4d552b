package budget

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/badgeshot/pkg/config"
	"github.com/pario-ai/badgeshot/pkg/models"
)

func TestCheckExceeded(t *testing.T) {
	d := Check(models.BudgetState{Total: 10, Spent: 8, WarnThreshold: 0.8}, 5)

	require.False(t, d.Allowed)
	assert.Equal(t, models.BudgetExceeded, d.Status)
	for _, want := range []string{"Budget exceeded!", "$5.0000", "$2.0000"} {
		assert.Contains(t, d.Message, want)
	}
}

func TestCheckWarning(t *testing.T) {
	d := Check(models.BudgetState{Total: 10, Spent: 5, WarnThreshold: 0.8}, 4)

	require.True(t, d.Allowed)
	assert.Equal(t, models.BudgetWarning, d.Status)
	assert.Contains(t, d.Message, "Warning")
	assert.Contains(t, d.Message, "90.0%")
}

func TestCheckOK(t *testing.T) {
	// zero threshold falls back to 0.8
	d := Check(models.BudgetState{Total: 100, Spent: 25}, 15)

	require.True(t, d.Allowed)
	assert.Equal(t, models.BudgetOK, d.Status)
	assert.NotContains(t, d.Message, "Warning")
	assert.Equal(t, 75.0, d.Remaining)
}

func TestCheckExactRemainingIsAllowed(t *testing.T) {
	d := Check(models.BudgetState{Total: 10, Spent: 6, WarnThreshold: 0.8}, 4)
	require.True(t, d.Allowed, "spending exactly the remainder should be allowed")
	assert.Equal(t, models.BudgetWarning, d.Status)
}

func TestCheckZeroTotal(t *testing.T) {
	d := Check(models.BudgetState{Total: 0, Spent: 0}, 0)
	require.True(t, d.Allowed)
	assert.True(t, math.IsNaN(d.Utilization), "utilization = %v", d.Utilization)
}

func TestFormatReport(t *testing.T) {
	r := FormatReport(10, 2.5, 1)
	for _, want := range []string{"$10.0000", "$2.5000", "25.0%", "$7.5000", "$1.0000", "$6.5000", "35.0%"} {
		assert.Contains(t, r, want)
	}
}

func TestPersistSpend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badgeshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiKey: k\nbudget:\n  total: 10\n  spent: 1\n"), 0o644))

	spent, err := PersistSpend(path, 0.16)
	require.NoError(t, err)
	assert.InDelta(t, 1.16, spent, 1e-9)

	spent, err = PersistSpend(path, -0.16)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, spent, 1e-9)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, 10.0, cfg.Budget.Total)
}

func TestPersistSpendMissingFile(t *testing.T) {
	_, err := PersistSpend(filepath.Join(t.TempDir(), "nope.yaml"), 1)
	assert.ErrorContains(t, err, "persist spend")
}
