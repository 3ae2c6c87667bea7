package hierarchy

import (
	"errors"
	"testing"

	"github.com/rankpilot/rankpilot/pkg/models"
)

func role(id string) models.Role {
	return models.Role{ID: id, Title: id}
}

func TestResolverDepths(t *testing.T) {
	roles := []models.Role{role("analyst"), role("manager"), role("ceo")}
	parents := models.Hierarchy{"analyst": "manager", "manager": "ceo"}

	r, err := New(roles, parents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]int{"ceo": 0, "manager": 1, "analyst": 2}
	for id, d := range want {
		if got := r.Depth(id); got != d {
			t.Errorf("Depth(%s) = %d, want %d", id, got, d)
		}
	}
}

func TestResolverOrderIsTopDown(t *testing.T) {
	// Regression: the root executes before its reports, never after.
	roles := []models.Role{role("analyst"), role("manager"), role("ceo")}
	parents := models.Hierarchy{"analyst": "manager", "manager": "ceo"}

	r, err := New(roles, parents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order := r.Order()
	got := []string{order[0].ID, order[1].ID, order[2].ID}
	want := []string{"ceo", "manager", "analyst"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("execution order = %v, want %v", got, want)
		}
	}
}

func TestResolverOrderStableWithinDepth(t *testing.T) {
	roles := []models.Role{role("boss"), role("b"), role("a"), role("c")}
	parents := models.Hierarchy{"a": "boss", "b": "boss", "c": "boss"}

	r, err := New(roles, parents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order := r.Order()
	// Peers keep list order: b before a before c.
	got := []string{order[1].ID, order[2].ID, order[3].ID}
	want := []string{"b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("peer order = %v, want %v", got, want)
		}
	}
}

func TestResolverCycleDetection(t *testing.T) {
	roles := []models.Role{role("a"), role("b")}
	parents := models.Hierarchy{"a": "b", "b": "a"}

	if _, err := New(roles, parents); !errors.Is(err, ErrCyclicHierarchy) {
		t.Fatalf("expected ErrCyclicHierarchy, got %v", err)
	}
}

func TestResolverSelfCycle(t *testing.T) {
	roles := []models.Role{role("a")}
	parents := models.Hierarchy{"a": "a"}

	if _, err := New(roles, parents); !errors.Is(err, ErrCyclicHierarchy) {
		t.Fatalf("expected ErrCyclicHierarchy, got %v", err)
	}
}

func TestResolverUnknownParent(t *testing.T) {
	roles := []models.Role{role("a")}
	parents := models.Hierarchy{"a": "ghost"}

	if _, err := New(roles, parents); err == nil {
		t.Fatal("expected error for unknown parent")
	}
}

func TestResolverPeers(t *testing.T) {
	roles := []models.Role{role("ceo"), role("seo"), role("content"), role("writer")}
	parents := models.Hierarchy{"seo": "ceo", "content": "ceo", "writer": "content"}

	r, err := New(roles, parents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	peers := r.Peers("seo")
	if len(peers) != 1 || peers[0].ID != "content" {
		t.Errorf("unexpected peers for seo: %v", peers)
	}

	if got := r.Peers("writer"); len(got) != 0 {
		t.Errorf("expected no peers for writer, got %v", got)
	}

	// A root's peers are the other roots (none here).
	if got := r.Peers("ceo"); len(got) != 0 {
		t.Errorf("expected no peers for sole root, got %v", got)
	}
}

func TestResolverPeerGroups(t *testing.T) {
	roles := []models.Role{role("ceo"), role("seo"), role("content")}
	parents := models.Hierarchy{"seo": "ceo", "content": "ceo"}

	r, err := New(roles, parents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	groups := r.PeerGroups()
	if len(groups[""]) != 1 || groups[""][0].ID != "ceo" {
		t.Errorf("expected root group with ceo, got %v", groups[""])
	}
	if len(groups["ceo"]) != 2 {
		t.Errorf("expected 2 reports under ceo, got %v", groups["ceo"])
	}
}

func TestResolverSuperior(t *testing.T) {
	roles := []models.Role{role("ceo"), role("seo")}
	parents := models.Hierarchy{"seo": "ceo"}

	r, err := New(roles, parents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sup, ok := r.Superior("seo")
	if !ok || sup.ID != "ceo" {
		t.Errorf("expected ceo superior, got %v ok=%v", sup, ok)
	}
	if _, ok := r.Superior("ceo"); ok {
		t.Error("root must have no superior")
	}
}
