package models

import "time"

// TaskStatus represents the current state of a synthesized task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusDone indicates the task completed.
	TaskStatusDone TaskStatus = "done"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// Task is a structured, schedulable unit of follow-up work synthesized
// from a role's free-text output. A task belongs to exactly one run;
// status transitions after creation happen outside the engine.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// RunID is the orchestrator run that created the task.
	RunID string `json:"run_id"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed information about the task.
	Description string `json:"description,omitempty"`
	// Category is the marketing discipline the task belongs to (seo,
	// content, links, ads, technical, analytics, conversion).
	Category string `json:"category"`
	// Priority is the urgency assigned by the role.
	Priority string `json:"priority"`
	// AssignedRole is the role responsible for the task.
	AssignedRole string `json:"assigned_role,omitempty"`
	// DueDate is the suggested completion date, if any.
	DueDate string `json:"due_date,omitempty"`
	// SuccessMetric describes how completion is measured.
	SuccessMetric string `json:"success_metric,omitempty"`
	// EstimatedImpact is the role's impact estimate.
	EstimatedImpact string `json:"estimated_impact,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// CreatedAt is when the task was synthesized.
	CreatedAt time.Time `json:"created_at"`
}

// WellFormed reports whether a synthesized task carries the fields the
// scheduler requires before persisting it.
func (t Task) WellFormed() bool {
	return t.Title != "" && t.Category != "" && t.Priority != ""
}
