package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rankpilot/rankpilot/pkg/models"
)

// roleCompleter returns a scripted response per role. Each test role
// carries its ID in Routine.Tasks, which the scheduler passes through
// as the user prompt, so responses key off the user prompt. System
// prompts are recorded in call order.
type roleCompleter struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	systems   []string
}

func (c *roleCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	c.mu.Lock()
	c.systems = append(c.systems, system)
	c.mu.Unlock()
	for roleID, err := range c.errs {
		if strings.Contains(user, "routine:"+roleID) {
			return "", err
		}
	}
	for roleID, resp := range c.responses {
		if strings.Contains(user, "routine:"+roleID) {
			return resp, nil
		}
	}
	return "generic report", nil
}

func testRole(id, title string) models.Role {
	return models.Role{ID: id, Title: title, Routine: models.Routine{Tasks: "routine:" + id}}
}

func threeTierRequest() models.OrchestratorRequest {
	return models.OrchestratorRequest{
		DeploymentID: "dep-1",
		ProjectID:    "proj-1",
		Roles: []models.Role{
			testRole("analyst", "SEO Analyst"),
			testRole("ceo", "Marketing Director"),
			testRole("manager", "Content Manager"),
		},
		Hierarchy: models.Hierarchy{
			"manager": "ceo",
			"analyst": "manager",
		},
	}
}

func TestRoundRunsTopDown(t *testing.T) {
	completer := &roleCompleter{responses: map[string]string{}}
	sched := NewRoundScheduler(completer, nil)

	result, err := sched.Run(context.Background(), threeTierRequest(), ProjectData{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(result.Results))
	}
	got := []string{result.Results[0].RoleID, result.Results[1].RoleID, result.Results[2].RoleID}
	want := []string{"ceo", "manager", "analyst"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestSubordinateSeesSuperiorDirective(t *testing.T) {
	completer := &roleCompleter{responses: map[string]string{
		"ceo": "Focus everything on the spring launch.",
	}}
	sched := NewRoundScheduler(completer, nil)

	_, err := sched.Run(context.Background(), threeTierRequest(), ProjectData{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The manager runs second; its system prompt must carry the root's report.
	managerSystem := completer.systems[1]
	if !strings.Contains(managerSystem, "Directive from Marketing Director") {
		t.Error("manager prompt missing directive header")
	}
	if !strings.Contains(managerSystem, "spring launch") {
		t.Error("manager prompt missing directive text")
	}
	// The root has no superior.
	if strings.Contains(completer.systems[0], "Directive from") {
		t.Error("root prompt should not carry a directive")
	}
}

func TestResponseSplitsReportAndTasks(t *testing.T) {
	store := &memoryTaskStore{}
	completer := &roleCompleter{responses: map[string]string{
		"ceo": "Report text\n---TASKS_JSON---\n[{\"title\":\"A\",\"category\":\"seo\",\"priority\":\"high\"}]",
	}}
	sched := NewRoundScheduler(completer, store)

	req := models.OrchestratorRequest{
		Roles: []models.Role{testRole("ceo", "Marketing Director")},
	}
	result, err := sched.Run(context.Background(), req, ProjectData{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	report, ok := result.Report("ceo")
	if !ok || report != "Report text" {
		t.Errorf("expected report %q, got %q (ok=%v)", "Report text", report, ok)
	}
	if len(result.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(result.Tasks))
	}
	task := result.Tasks[0]
	if task.Title != "A" || task.Category != "seo" || task.Priority != "high" {
		t.Errorf("unexpected task: %+v", task)
	}
	if task.AssignedRole != "ceo" {
		t.Errorf("expected assigned role ceo, got %s", task.AssignedRole)
	}
	if task.Status != models.TaskStatusPending {
		t.Errorf("expected pending status, got %s", task.Status)
	}
	if task.RunID != result.RunID {
		t.Errorf("task run ID %s does not match round %s", task.RunID, result.RunID)
	}
	if len(store.saved) != 1 {
		t.Errorf("expected 1 persisted task, got %d", len(store.saved))
	}
}

func TestMalformedTaskBlockKeepsReport(t *testing.T) {
	completer := &roleCompleter{responses: map[string]string{
		"ceo": "Solid analysis here.\n---TASKS_JSON---\nnot json at all",
	}}
	sched := NewRoundScheduler(completer, nil)

	req := models.OrchestratorRequest{
		Roles: []models.Role{testRole("ceo", "Marketing Director")},
	}
	result, err := sched.Run(context.Background(), req, ProjectData{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report, _ := result.Report("ceo"); report != "Solid analysis here." {
		t.Errorf("expected report kept, got %q", report)
	}
	if len(result.Tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(result.Tasks))
	}
	if result.Results[0].Status != models.ResultSuccess {
		t.Errorf("malformed task block must not fail the role")
	}
}

func TestMalformedTasksAreFiltered(t *testing.T) {
	completer := &roleCompleter{responses: map[string]string{
		"ceo": "R\n---TASKS_JSON---\n[{\"title\":\"Good\",\"category\":\"seo\",\"priority\":\"high\"},{\"title\":\"\",\"category\":\"seo\",\"priority\":\"high\"},{\"title\":\"NoCat\",\"priority\":\"low\"}]",
	}}
	sched := NewRoundScheduler(completer, nil)

	req := models.OrchestratorRequest{
		Roles: []models.Role{testRole("ceo", "Marketing Director")},
	}
	result, err := sched.Run(context.Background(), req, ProjectData{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Tasks) != 1 || result.Tasks[0].Title != "Good" {
		t.Fatalf("expected only the well-formed task, got %+v", result.Tasks)
	}
}

func TestRoleFailureIsIsolated(t *testing.T) {
	completer := &roleCompleter{
		responses: map[string]string{},
		errs:      map[string]error{"manager": errors.New("rate limited")},
	}
	sched := NewRoundScheduler(completer, nil)

	result, err := sched.Run(context.Background(), threeTierRequest(), ProjectData{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(result.Results))
	}
	if result.Results[1].Status != models.ResultError {
		t.Errorf("expected manager error result, got %s", result.Results[1].Status)
	}
	if result.Results[2].Status != models.ResultSuccess {
		t.Errorf("analyst must still run after manager failure")
	}
	if result.SuccessCount() != 2 {
		t.Errorf("expected 2 successes, got %d", result.SuccessCount())
	}
	if _, ok := result.Report("manager"); ok {
		t.Error("failed role must not have a report")
	}
}

func TestCyclicHierarchyIsFatal(t *testing.T) {
	completer := &roleCompleter{}
	sched := NewRoundScheduler(completer, nil)

	req := models.OrchestratorRequest{
		Roles:     []models.Role{testRole("a", "A"), testRole("b", "B")},
		Hierarchy: models.Hierarchy{"a": "b", "b": "a"},
	}
	if _, err := sched.Run(context.Background(), req, ProjectData{}); err == nil {
		t.Fatal("expected error for cyclic hierarchy")
	}
	if len(completer.systems) != 0 {
		t.Errorf("no role may run on a broken hierarchy, got %d calls", len(completer.systems))
	}
}

func TestFailingTaskStoreDoesNotFailRound(t *testing.T) {
	store := &memoryTaskStore{err: errors.New("db locked")}
	completer := &roleCompleter{responses: map[string]string{
		"ceo": "R\n---TASKS_JSON---\n[{\"title\":\"A\",\"category\":\"seo\",\"priority\":\"high\"}]",
	}}
	sched := NewRoundScheduler(completer, store)

	req := models.OrchestratorRequest{
		Roles: []models.Role{testRole("ceo", "Marketing Director")},
	}
	result, err := sched.Run(context.Background(), req, ProjectData{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Tasks) != 1 {
		t.Errorf("tasks stay in the result even when persistence fails")
	}
}

type memoryTaskStore struct {
	mu    sync.Mutex
	saved []models.Task
	err   error
}

func (s *memoryTaskStore) SaveTasks(ctx context.Context, tasks []models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, tasks...)
	return nil
}
