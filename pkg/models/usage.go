package models

import "time"

// RunRecord is one batch run in the history ledger.
type RunRecord struct {
	ID              string    `json:"id"`
	Provider        string    `json:"provider"`
	Model           string    `json:"model"`
	Style           string    `json:"style"`
	Format          string    `json:"format"`
	OutputDir       string    `json:"output_dir"`
	Requested       int       `json:"requested"`
	Succeeded       int       `json:"succeeded"`
	Failed          int       `json:"failed"`
	EstimatedCost   float64   `json:"estimated_cost"`
	ActualCost      float64   `json:"actual_cost"`
	AbortedByBudget bool      `json:"aborted_by_budget"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

// ImageRecord is one saved image in the history ledger.
type ImageRecord struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Gender    Gender    `json:"gender"`
	Path      string    `json:"path"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}

// CostReport is spend aggregated by provider and model.
type CostReport struct {
	Provider  string  `json:"provider"`
	Model     string  `json:"model"`
	Runs      int     `json:"runs"`
	Requested int     `json:"requested"`
	Images    int     `json:"images"`
	Cost      float64 `json:"cost"`
}
