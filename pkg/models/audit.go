package models

import "time"

// AuditEntry records a single provider call attempt.
type AuditEntry struct {
	RequestID    string    `json:"request_id"`
	RunID        string    `json:"run_id"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	KeyHash      string    `json:"key_hash"`
	Attempt      int       `json:"attempt"`
	Prompt       string    `json:"prompt,omitempty"`
	Size         string    `json:"size"`
	StatusCode   int       `json:"status_code"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	LatencyMs    int64     `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditConfig controls the provider attempt log.
type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"dbPath"`
	RetentionDays int    `yaml:"retentionDays"`
	IncludePrompt bool   `yaml:"includePrompt"`
	MaxPromptSize int    `yaml:"maxPromptSize"`
}

// AuditQueryOpts specifies filters for querying audit entries.
type AuditQueryOpts struct {
	RunID    string
	Provider string
	Since    time.Time
	Failed   bool
	Limit    int
}

// AuditStat holds aggregate attempt counts for a provider/day combination.
type AuditStat struct {
	Provider string
	Day      string
	Attempts int
	Failures int
}
