package models

import "time"

// OrchestratorRequest starts one run of a deployment's organizational chart.
type OrchestratorRequest struct {
	// DeploymentID identifies the standing org-chart deployment.
	DeploymentID string `json:"deploymentId"`
	// ProjectID is the marketing project the run operates on.
	ProjectID string `json:"projectId"`
	// OwnerID is the account that owns the deployment.
	OwnerID string `json:"ownerId"`
	// Roles is the flat role list to execute.
	Roles []Role `json:"roles"`
	// Hierarchy maps child role ID to parent role ID.
	Hierarchy Hierarchy `json:"hierarchy"`
	// TriggerType describes how the run was started (manual, schedule).
	TriggerType string `json:"triggerType,omitempty"`
}

// OrchestratorSummary is the caller-facing outcome of one orchestrator run.
type OrchestratorSummary struct {
	// RunID is the unique identifier of the run.
	RunID string `json:"runId"`
	// ResultsCount is the number of AgentResults recorded.
	ResultsCount int `json:"resultsCount"`
	// SuccessCount is the number of roles that succeeded.
	SuccessCount int `json:"successCount"`
	// TasksCreated is the number of tasks synthesized from role output.
	TasksCreated int `json:"tasksCreated"`
	// DailyTasksCreated is the number of daily-plan actions produced.
	DailyTasksCreated int `json:"dailyTasksCreated"`
	// HasStrategicPlan is true when strategic synthesis succeeded.
	HasStrategicPlan bool `json:"hasStrategicPlan"`
	// DailyPlanDays is the number of days in the daily plan (0 if absent).
	DailyPlanDays int `json:"dailyPlanDays"`
	// StartedAt is when the run began.
	StartedAt time.Time `json:"startedAt"`
	// CompletedAt is when the run finished.
	CompletedAt time.Time `json:"completedAt"`
}
