package models

// Role is a configured AI persona positioned in a reporting hierarchy.
// Roles are configuration data and are never mutated by a run.
type Role struct {
	// ID is the unique identifier of the role within its deployment.
	ID string `json:"id" yaml:"id"`
	// Title is the role's display name (e.g. "SEO Manager").
	Title string `json:"title" yaml:"title"`
	// Emoji is the role's avatar shown in the org chart.
	Emoji string `json:"emoji,omitempty" yaml:"emoji,omitempty"`
	// Instructions is the persona text injected into the role's prompts.
	Instructions string `json:"instructions" yaml:"instructions"`
	// Routine describes what the role does each cycle.
	Routine Routine `json:"routine" yaml:"routine"`
}

// Routine is the recurring work definition of a role.
type Routine struct {
	// Cadence is how often the role runs (daily, weekly, monthly).
	Cadence string `json:"cadence,omitempty" yaml:"cadence,omitempty"`
	// Tasks is the free-text task list the role executes each cycle.
	Tasks string `json:"tasks" yaml:"tasks"`
}

// Hierarchy maps a child role ID to its parent role ID. Roles absent
// from the map are roots of the organization.
type Hierarchy map[string]string

// OrgChart is the persisted form of a deployment's organizational chart.
type OrgChart struct {
	Roles     []Role    `json:"roles" yaml:"roles"`
	Hierarchy Hierarchy `json:"hierarchy" yaml:"hierarchy"`
}
