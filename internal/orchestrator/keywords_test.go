package orchestrator

import "testing"

func TestClassifyTitle(t *testing.T) {
	tests := []struct {
		title string
		want  Specialty
	}{
		{"SEO Specialist", SpecialtySEO},
		{"Head of Search", SpecialtySEO},
		{"Content Writer", SpecialtyContent},
		{"Blog Editor", SpecialtyContent},
		{"Link Building Outreach", SpecialtyLinks},
		{"PPC Manager", SpecialtyAds},
		{"Technical SEO Engineer", SpecialtyTechnical},
		{"Data Analyst", SpecialtyAnalytics},
		{"CRO Lead", SpecialtyConversion},
		{"Marketing Director", SpecialtyGeneral},
		{"CEO", SpecialtyGeneral},
	}
	for _, tt := range tests {
		if got := ClassifyTitle(tt.title); got != tt.want {
			t.Errorf("ClassifyTitle(%q) = %s, want %s", tt.title, got, tt.want)
		}
	}
}

func TestExcerptForFallsBackToOverview(t *testing.T) {
	data := ProjectData{
		SearchPerformance: "rankings data",
		BusinessOverview:  "overview",
	}

	if got := data.ExcerptFor(SpecialtySEO); got != "rankings data" {
		t.Errorf("expected specialty section, got %q", got)
	}
	if got := data.ExcerptFor(SpecialtyAds); got != "overview" {
		t.Errorf("empty section must fall back to overview, got %q", got)
	}
	if got := data.ExcerptFor(SpecialtyGeneral); got != "overview" {
		t.Errorf("general specialty gets the overview, got %q", got)
	}
}
