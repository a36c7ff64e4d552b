package models

// BudgetState is the spend ledger persisted in the config file.
type BudgetState struct {
	Total         float64 `json:"total" yaml:"total"`
	Spent         float64 `json:"spent" yaml:"spent"`
	WarnThreshold float64 `json:"warnThreshold" yaml:"warnThreshold"`
}

// Remaining returns Total minus Spent. It may be negative.
func (b BudgetState) Remaining() float64 {
	return b.Total - b.Spent
}

// BudgetStatus classifies a budget decision.
type BudgetStatus string

const (
	BudgetOK       BudgetStatus = "ok"
	BudgetWarning  BudgetStatus = "warning"
	BudgetExceeded BudgetStatus = "exceeded"
)
