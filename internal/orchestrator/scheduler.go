package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rankpilot/rankpilot/internal/hierarchy"
	"github.com/rankpilot/rankpilot/internal/llm"
	"github.com/rankpilot/rankpilot/pkg/models"
)

// TaskPersister stores synthesized tasks. Persistence is fire-and-forget:
// a failing store is logged and never affects the round.
type TaskPersister interface {
	SaveTasks(ctx context.Context, tasks []models.Task) error
}

// AgentRoundError wraps one role's failure. It is recorded as an error
// AgentResult; the round continues with the next role.
type AgentRoundError struct {
	RoleID string
	Err    error
}

// Error implements the error interface.
func (e *AgentRoundError) Error() string {
	return fmt.Sprintf("role %s: %v", e.RoleID, e.Err)
}

// Unwrap returns the underlying failure.
func (e *AgentRoundError) Unwrap() error {
	return e.Err
}

// RoundResult is the outcome of one agent round.
type RoundResult struct {
	// RunID identifies the run that produced this round.
	RunID string
	// Results holds one AgentResult per role, in completion order.
	Results []models.AgentResult
	// Tasks holds every well-formed task synthesized this round.
	Tasks []models.Task
	// reports maps role ID to its report text for downstream passes.
	reports map[string]string
}

// Report returns the report text a role produced this round, if any.
// Error results have no report.
func (r *RoundResult) Report(roleID string) (string, bool) {
	text, ok := r.reports[roleID]
	return text, ok
}

// SuccessCount returns the number of roles that succeeded.
func (r *RoundResult) SuccessCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == models.ResultSuccess {
			n++
		}
	}
	return n
}

// RoundScheduler executes one organizational round: every role in
// ascending hierarchy depth, root first. The round is a top-down
// directive cascade — each role receives its superior's report as a
// directive and sees the reports of peers that already ran.
type RoundScheduler struct {
	completer llm.Completer
	store     TaskPersister
	// debugLog is an optional logging function.
	debugLog func(format string, args ...interface{})
	// now and newID are injectable for tests.
	now   func() time.Time
	newID func() string
}

// NewRoundScheduler creates a scheduler over the given completion backend.
// store may be nil when task persistence is handled by the caller.
func NewRoundScheduler(completer llm.Completer, store TaskPersister) *RoundScheduler {
	return &RoundScheduler{
		completer: completer,
		store:     store,
		debugLog:  func(format string, args ...interface{}) {},
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// SetDebugLog sets the debug logging function.
func (s *RoundScheduler) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		s.debugLog = fn
	}
}

// Run executes one round. It fails fast only on a broken hierarchy
// (cycle or unknown parent); role failures are isolated per role and
// absorbed into the results.
func (s *RoundScheduler) Run(ctx context.Context, req models.OrchestratorRequest, data ProjectData) (*RoundResult, error) {
	resolver, err := hierarchy.New(req.Roles, req.Hierarchy)
	if err != nil {
		return nil, fmt.Errorf("resolve hierarchy: %w", err)
	}

	result := &RoundResult{
		RunID:   s.newID(),
		reports: make(map[string]string),
	}

	order := resolver.Order()
	s.debugLog("[round %s] executing %d roles top-down", result.RunID, len(order))

	for _, role := range order {
		startedAt := s.now()

		report, tasks, roleErr := s.runRole(ctx, role, resolver, data, result)
		if roleErr != nil {
			wrapped := &AgentRoundError{RoleID: role.ID, Err: roleErr}
			s.debugLog("[round %s] %v", result.RunID, wrapped)
			result.Results = append(result.Results, models.AgentResult{
				RoleID:      role.ID,
				Title:       role.Title,
				Emoji:       role.Emoji,
				Status:      models.ResultError,
				Text:        roleErr.Error(),
				StartedAt:   startedAt,
				CompletedAt: s.now(),
			})
			continue
		}

		result.reports[role.ID] = report
		result.Results = append(result.Results, models.AgentResult{
			RoleID:      role.ID,
			Title:       role.Title,
			Emoji:       role.Emoji,
			Status:      models.ResultSuccess,
			Text:        report,
			StartedAt:   startedAt,
			CompletedAt: s.now(),
		})
		result.Tasks = append(result.Tasks, tasks...)
	}

	if s.store != nil && len(result.Tasks) > 0 {
		// Fire-and-forget: a failing store never fails the round.
		if err := s.store.SaveTasks(ctx, result.Tasks); err != nil {
			s.debugLog("[round %s] task persistence failed: %v", result.RunID, err)
		}
	}

	return result, nil
}

// runRole executes a single role and parses its response.
func (s *RoundScheduler) runRole(ctx context.Context, role models.Role, resolver *hierarchy.Resolver, data ProjectData, result *RoundResult) (string, []models.Task, error) {
	var superior *peerReport
	if sup, ok := resolver.Superior(role.ID); ok {
		if text, has := result.reports[sup.ID]; has {
			superior = &peerReport{roleID: sup.ID, title: sup.Title, text: text}
		}
	}

	// Peers at the same depth execute in list order, so only peers that
	// already ran this round are visible.
	var peers []peerReport
	for _, peer := range resolver.Peers(role.ID) {
		if text, has := result.reports[peer.ID]; has {
			peers = append(peers, peerReport{roleID: peer.ID, title: peer.Title, text: text})
		}
	}

	system := buildSystemPrompt(role, data, superior, peers)

	instruction := role.Routine.Tasks
	if instruction == "" {
		instruction = "Execute your routine and report your findings."
	}

	response, err := s.completer.Complete(ctx, system, instruction)
	if err != nil {
		return "", nil, err
	}

	report, tasks := s.parseResponse(role, result.RunID, response)
	return report, tasks, nil
}

// parseResponse splits a role's response on the task delimiter. A missing
// or malformed task block degrades to "report only, no tasks"; the report
// itself is always kept.
func (s *RoundScheduler) parseResponse(role models.Role, runID, response string) (string, []models.Task) {
	report := strings.TrimSpace(response)
	var taskBlock string
	if idx := strings.Index(response, TasksDelimiter); idx >= 0 {
		report = strings.TrimSpace(response[:idx])
		taskBlock = response[idx+len(TasksDelimiter):]
	}
	if taskBlock == "" {
		return report, nil
	}

	var payload []struct {
		Title           string `json:"title"`
		Description     string `json:"description"`
		Category        string `json:"category"`
		Priority        string `json:"priority"`
		DueDate         string `json:"dueDate"`
		SuccessMetric   string `json:"successMetric"`
		EstimatedImpact string `json:"estimatedImpact"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(taskBlock)), &payload); err != nil {
		// A malformed task array discards only the tasks, never the report.
		s.debugLog("[round %s] role %s: task block unparsable: %v", runID, role.ID, err)
		return report, nil
	}

	var tasks []models.Task
	for _, p := range payload {
		task := models.Task{
			ID:              s.newID(),
			RunID:           runID,
			Title:           p.Title,
			Description:     p.Description,
			Category:        p.Category,
			Priority:        p.Priority,
			AssignedRole:    role.ID,
			DueDate:         p.DueDate,
			SuccessMetric:   p.SuccessMetric,
			EstimatedImpact: p.EstimatedImpact,
			Status:          models.TaskStatusPending,
			CreatedAt:       s.now(),
		}
		if !task.WellFormed() {
			s.debugLog("[round %s] role %s: dropping malformed task %q", runID, role.ID, p.Title)
			continue
		}
		tasks = append(tasks, task)
	}
	return report, tasks
}
