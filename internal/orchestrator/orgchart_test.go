package orchestrator

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chart.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

func TestLoadOrgChart(t *testing.T) {
	path := writeTempYAML(t, `
roles:
  - id: ceo
    title: Marketing Director
    emoji: "🧭"
    instructions: Set the direction.
    routine:
      cadence: daily
      tasks: Review team output and set priorities.
  - id: seo
    title: SEO Analyst
    routine:
      tasks: Audit rankings.
hierarchy:
  seo: ceo
`)

	chart, err := LoadOrgChart(path)
	if err != nil {
		t.Fatalf("LoadOrgChart failed: %v", err)
	}
	if len(chart.Roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(chart.Roles))
	}
	if chart.Roles[0].ID != "ceo" || chart.Roles[0].Routine.Cadence != "daily" {
		t.Errorf("unexpected first role: %+v", chart.Roles[0])
	}
	if chart.Hierarchy["seo"] != "ceo" {
		t.Errorf("hierarchy lost: %+v", chart.Hierarchy)
	}
}

func TestLoadOrgChartValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no roles", "hierarchy: {}\n"},
		{"missing id", "roles:\n  - title: Someone\n"},
		{"missing title", "roles:\n  - id: x\n"},
		{"bad yaml", "roles: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempYAML(t, tt.content)
			if _, err := LoadOrgChart(path); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestLoadProjectData(t *testing.T) {
	path := writeTempYAML(t, `
search_performance: "Top query: running shoes, position 8."
business_overview: "DTC running shoe brand."
`)

	pd, err := LoadProjectData(path)
	if err != nil {
		t.Fatalf("LoadProjectData failed: %v", err)
	}
	if pd.SearchPerformance == "" || pd.BusinessOverview == "" {
		t.Errorf("sections lost: %+v", pd)
	}

	empty, err := LoadProjectData("")
	if err != nil {
		t.Fatalf("empty path must not error: %v", err)
	}
	if empty != (ProjectData{}) {
		t.Errorf("expected zero data, got %+v", empty)
	}
}
