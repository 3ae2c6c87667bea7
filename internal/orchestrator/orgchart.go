package orchestrator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rankpilot/rankpilot/pkg/models"
)

// LoadOrgChart reads an organizational chart from a YAML file. The
// hierarchy is validated during scheduling, not here; loading only
// checks for structurally usable input.
func LoadOrgChart(path string) (*models.OrgChart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read org chart: %w", err)
	}

	var chart models.OrgChart
	if err := yaml.Unmarshal(data, &chart); err != nil {
		return nil, fmt.Errorf("parse org chart: %w", err)
	}
	if len(chart.Roles) == 0 {
		return nil, fmt.Errorf("org chart %s defines no roles", path)
	}
	for i, role := range chart.Roles {
		if role.ID == "" {
			return nil, fmt.Errorf("org chart %s: role %d has no id", path, i)
		}
		if role.Title == "" {
			return nil, fmt.Errorf("org chart %s: role %s has no title", path, role.ID)
		}
	}
	return &chart, nil
}

// LoadProjectData reads per-discipline data excerpts from a YAML file.
// A missing path yields empty data, not an error: roles then prompt
// without specialty sections.
func LoadProjectData(path string) (ProjectData, error) {
	if path == "" {
		return ProjectData{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ProjectData{}, fmt.Errorf("read project data: %w", err)
	}

	var pd ProjectData
	if err := yaml.Unmarshal(data, &pd); err != nil {
		return ProjectData{}, fmt.Errorf("parse project data: %w", err)
	}
	return pd, nil
}
