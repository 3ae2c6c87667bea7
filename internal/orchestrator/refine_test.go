package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rankpilot/rankpilot/internal/hierarchy"
	"github.com/rankpilot/rankpilot/pkg/models"
)

// critiqueCompleter answers every call with a fixed critique and records
// the prompts it saw.
type critiqueCompleter struct {
	mu       sync.Mutex
	users    []string
	critique string
	err      error
}

func (c *critiqueCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	c.mu.Lock()
	c.users = append(c.users, user)
	c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	return c.critique, nil
}

func (c *critiqueCompleter) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.users)
}

func roundWithReports(reports map[string]string) *RoundResult {
	result := &RoundResult{RunID: "run-1", reports: make(map[string]string)}
	for id, text := range reports {
		result.reports[id] = text
		result.Results = append(result.Results, models.AgentResult{
			RoleID: id,
			Status: models.ResultSuccess,
			Text:   text,
		})
	}
	return result
}

func TestRefineEachPairMemberGetsOwnCall(t *testing.T) {
	roles := []models.Role{
		{ID: "a", Title: "SEO Analyst"},
		{ID: "b", Title: "Content Writer"},
	}
	resolver, err := hierarchy.New(roles, nil)
	if err != nil {
		t.Fatalf("hierarchy.New failed: %v", err)
	}

	completer := &critiqueCompleter{critique: "Reports overlap on keywords."}
	refiner := NewRefiner(completer, 3)
	result := roundWithReports(map[string]string{"a": "report A", "b": "report B"})

	refiner.Refine(context.Background(), resolver, result)

	if got := completer.callCount(); got != 2 {
		t.Fatalf("expected one refinement call per member, got %d", got)
	}
	for _, id := range []string{"a", "b"} {
		text := result.reports[id]
		if !strings.Contains(text, "--- Refinement ---") {
			t.Errorf("role %s missing refinement separator", id)
		}
		if !strings.Contains(text, "Reports overlap on keywords.") {
			t.Errorf("role %s missing refinement text", id)
		}
	}
	// Results carry the refined text too.
	for _, res := range result.Results {
		if !strings.Contains(res.Text, "Reports overlap") {
			t.Errorf("result for %s not updated", res.RoleID)
		}
	}
}

func TestRefinePromptIsPerMember(t *testing.T) {
	roles := []models.Role{
		{ID: "a", Title: "SEO Analyst"},
		{ID: "b", Title: "Content Writer"},
	}
	resolver, err := hierarchy.New(roles, nil)
	if err != nil {
		t.Fatalf("hierarchy.New failed: %v", err)
	}

	completer := &critiqueCompleter{critique: "tighten"}
	refiner := NewRefiner(completer, 3)
	result := roundWithReports(map[string]string{"a": "alpha findings", "b": "bravo findings"})

	refiner.Refine(context.Background(), resolver, result)

	if got := completer.callCount(); got != 2 {
		t.Fatalf("expected 2 refinement calls, got %d", got)
	}
	// Each prompt leads with that member's own report and carries the
	// other member's report as a peer excerpt.
	var sawA, sawB bool
	for _, user := range completer.users {
		own := user[strings.Index(user, "## Your report"):strings.Index(user, "## Peer reports")]
		switch {
		case strings.Contains(own, "alpha findings"):
			sawA = true
			if !strings.Contains(user, "bravo findings") {
				t.Errorf("a's prompt missing b's report: %q", user)
			}
		case strings.Contains(own, "bravo findings"):
			sawB = true
			if !strings.Contains(user, "alpha findings") {
				t.Errorf("b's prompt missing a's report: %q", user)
			}
		}
	}
	if !sawA || !sawB {
		t.Errorf("expected one tailored prompt per member, got %v", completer.users)
	}
}

func TestRefineSkipsLoneRole(t *testing.T) {
	roles := []models.Role{{ID: "solo", Title: "Generalist"}}
	resolver, err := hierarchy.New(roles, nil)
	if err != nil {
		t.Fatalf("hierarchy.New failed: %v", err)
	}

	completer := &critiqueCompleter{critique: "noise"}
	refiner := NewRefiner(completer, 3)
	result := roundWithReports(map[string]string{"solo": "report"})

	refiner.Refine(context.Background(), resolver, result)

	if got := completer.callCount(); got != 0 {
		t.Errorf("a lone role must not be refined, got %d calls", got)
	}
	if result.reports["solo"] != "report" {
		t.Errorf("report must be untouched, got %q", result.reports["solo"])
	}
}

func TestRefineSkipsOversizedGroup(t *testing.T) {
	roles := []models.Role{
		{ID: "a", Title: "A"}, {ID: "b", Title: "B"},
		{ID: "c", Title: "C"}, {ID: "d", Title: "D"},
	}
	resolver, err := hierarchy.New(roles, nil)
	if err != nil {
		t.Fatalf("hierarchy.New failed: %v", err)
	}

	completer := &critiqueCompleter{critique: "noise"}
	refiner := NewRefiner(completer, 3)
	result := roundWithReports(map[string]string{
		"a": "ra", "b": "rb", "c": "rc", "d": "rd",
	})

	refiner.Refine(context.Background(), resolver, result)

	if got := completer.callCount(); got != 0 {
		t.Errorf("groups above the cap must be skipped, got %d calls", got)
	}
}

func TestRefineGroupSizeCountsFailedMembers(t *testing.T) {
	// Four peers, one failed. The group's total size still exceeds the
	// cap, so the surviving three are not refined either.
	roles := []models.Role{
		{ID: "a", Title: "A"}, {ID: "b", Title: "B"},
		{ID: "c", Title: "C"}, {ID: "d", Title: "D"},
	}
	resolver, err := hierarchy.New(roles, nil)
	if err != nil {
		t.Fatalf("hierarchy.New failed: %v", err)
	}

	completer := &critiqueCompleter{critique: "noise"}
	refiner := NewRefiner(completer, 3)
	result := roundWithReports(map[string]string{"a": "ra", "b": "rb", "c": "rc"})
	result.Results = append(result.Results, models.AgentResult{RoleID: "d", Status: models.ResultError, Text: "boom"})

	refiner.Refine(context.Background(), resolver, result)

	if got := completer.callCount(); got != 0 {
		t.Errorf("group size is the full peer group, got %d calls", got)
	}
}

func TestRefineFailureLeavesReportsIntact(t *testing.T) {
	roles := []models.Role{
		{ID: "a", Title: "A"},
		{ID: "b", Title: "B"},
	}
	resolver, err := hierarchy.New(roles, nil)
	if err != nil {
		t.Fatalf("hierarchy.New failed: %v", err)
	}

	completer := &critiqueCompleter{err: errors.New("overloaded")}
	refiner := NewRefiner(completer, 3)
	result := roundWithReports(map[string]string{"a": "report A", "b": "report B"})

	refiner.Refine(context.Background(), resolver, result)

	if result.reports["a"] != "report A" || result.reports["b"] != "report B" {
		t.Error("a failed refinement must leave the originals untouched")
	}
}

func TestRefineExcludesFailedRoles(t *testing.T) {
	roles := []models.Role{
		{ID: "a", Title: "A"},
		{ID: "b", Title: "B"},
		{ID: "c", Title: "C"},
	}
	resolver, err := hierarchy.New(roles, nil)
	if err != nil {
		t.Fatalf("hierarchy.New failed: %v", err)
	}

	completer := &critiqueCompleter{critique: "pairwise critique"}
	refiner := NewRefiner(completer, 3)
	// c failed this round and has no report.
	result := roundWithReports(map[string]string{"a": "ra", "b": "rb"})
	result.Results = append(result.Results, models.AgentResult{RoleID: "c", Status: models.ResultError, Text: "boom"})

	refiner.Refine(context.Background(), resolver, result)

	if got := completer.callCount(); got != 2 {
		t.Fatalf("expected a refinement call per surviving member, got %d", got)
	}
	if strings.Contains(result.Results[2].Text, "pairwise critique") {
		t.Error("failed role must not receive a refinement")
	}
}
