package budget

import (
	"errors"
	"fmt"

	"github.com/pario-ai/badgeshot/pkg/config"
	"github.com/pario-ai/badgeshot/pkg/models"
)

// ErrBudgetExceeded is returned when a run would spend more than remains.
var ErrBudgetExceeded = errors.New("budget exceeded")

// DefaultWarnThreshold applies when the configured threshold is zero.
const DefaultWarnThreshold = 0.8

// Decision is the outcome of a pre-flight budget check.
type Decision struct {
	Allowed     bool
	Status      models.BudgetStatus
	Message     string
	Estimated   float64
	Remaining   float64
	Utilization float64 // percent of total after the run
}

// Check decides whether estimated can be spent against state.
// Denial is a normal outcome, not an error.
func Check(state models.BudgetState, estimated float64) Decision {
	remaining := state.Remaining()
	threshold := state.WarnThreshold
	if threshold == 0 {
		threshold = DefaultWarnThreshold
	}

	after := state.Spent + estimated
	d := Decision{
		Allowed:     remaining >= estimated,
		Estimated:   estimated,
		Remaining:   remaining,
		Utilization: after / state.Total * 100,
	}

	switch {
	case !d.Allowed:
		d.Status = models.BudgetExceeded
		d.Message = fmt.Sprintf(
			"Budget exceeded! Estimated cost: $%.4f, Remaining budget: $%.4f (Total: $%.4f, Spent: $%.4f)",
			estimated, remaining, state.Total, state.Spent)
	case after/state.Total >= threshold:
		d.Status = models.BudgetWarning
		d.Message = fmt.Sprintf(
			"Warning: This generation will use %.1f%% of your budget. Estimated cost: $%.4f, Spent after generation: $%.4f, Remaining after generation: $%.4f",
			d.Utilization, estimated, after, remaining-estimated)
	default:
		d.Status = models.BudgetOK
		d.Message = fmt.Sprintf(
			"Estimated cost: $%.4f, Remaining after generation: $%.4f",
			estimated, remaining-estimated)
	}
	return d
}

// FormatReport renders the balance sheet for a prospective run.
func FormatReport(total, spent, estimated float64) string {
	remaining := total - spent
	return fmt.Sprintf(`Budget Report
  Total:               $%.4f
  Spent:               $%.4f (%.1f%%)
  Remaining:           $%.4f
  Estimated cost:      $%.4f
  Remaining after run: $%.4f (%.1f%% used)`,
		total,
		spent, spent/total*100,
		remaining,
		estimated,
		remaining-estimated, (spent+estimated)/total*100)
}

// PersistSpend adds amount to budget.spent in the config file at path.
// Negative amounts are refunds. Errors are returned unretried.
func PersistSpend(configPath string, amount float64) (float64, error) {
	spent, err := config.AddSpend(configPath, amount)
	if err != nil {
		return 0, fmt.Errorf("persist spend: %w", err)
	}
	return spent, nil
}
