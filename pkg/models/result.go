package models

import "time"

// AgentResultStatus is the outcome of one role's execution within a run.
type AgentResultStatus string

const (
	// ResultSuccess indicates the role produced a report.
	ResultSuccess AgentResultStatus = "success"
	// ResultError indicates the role failed; Text carries the error message.
	ResultError AgentResultStatus = "error"
)

// AgentResult records one role's execution outcome within an orchestrator
// run. Results are appended in completion order and immutable once written.
type AgentResult struct {
	// RoleID is the role that produced this result.
	RoleID string `json:"role_id"`
	// Title is the role's title at execution time.
	Title string `json:"title"`
	// Emoji is the role's avatar at execution time.
	Emoji string `json:"emoji,omitempty"`
	// Status is success or error.
	Status AgentResultStatus `json:"status"`
	// Text is the role's report, or the error message on failure.
	Text string `json:"text"`
	// StartedAt is when the role began executing.
	StartedAt time.Time `json:"started_at"`
	// CompletedAt is when the role finished.
	CompletedAt time.Time `json:"completed_at"`
}
