// Package orchestrator runs a deployment's organizational chart: one
// round of role executions in hierarchy order, an optional peer
// refinement pass, and plan synthesis over the collected reports.
package orchestrator

import "strings"

// Specialty is the marketing discipline a role's prompt data is drawn from.
type Specialty string

const (
	SpecialtySEO        Specialty = "seo"
	SpecialtyContent    Specialty = "content"
	SpecialtyLinks      Specialty = "links"
	SpecialtyAds        Specialty = "ads"
	SpecialtyTechnical  Specialty = "technical"
	SpecialtyAnalytics  Specialty = "analytics"
	SpecialtyConversion Specialty = "conversion"
	// SpecialtyGeneral is the fallback when no keyword matches.
	SpecialtyGeneral Specialty = "general"
)

// specialtyKeywords is the single source of truth for matching a role's
// title to the data excerpt it receives. First match wins in the order
// listed here.
var specialtyKeywords = []struct {
	specialty Specialty
	keywords  []string
}{
	{SpecialtyLinks, []string{
		"link",
		"backlink",
		"outreach",
		"off-page",
		"off page",
	}},
	{SpecialtyAds, []string{
		"ads",
		"ppc",
		"paid",
		"campaign",
		"sem",
		"google ads",
	}},
	{SpecialtyTechnical, []string{
		"technical",
		"tech",
		"developer",
		"engineer",
		"performance",
		"core web vitals",
	}},
	{SpecialtyAnalytics, []string{
		"analytics",
		"analyst",
		"data",
		"reporting",
		"insights",
	}},
	{SpecialtyConversion, []string{
		"conversion",
		"cro",
		"funnel",
		"growth",
	}},
	{SpecialtyContent, []string{
		"content",
		"copywriter",
		"writer",
		"editorial",
		"blog",
	}},
	{SpecialtySEO, []string{
		"seo",
		"search",
		"ranking",
		"keyword",
		"organic",
	}},
}

// ClassifyTitle maps a role title to its specialty by keyword matching.
// Unmatched titles (CEO, directors, generalists) get the general excerpt.
func ClassifyTitle(title string) Specialty {
	lower := strings.ToLower(title)
	for _, entry := range specialtyKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.specialty
			}
		}
	}
	return SpecialtyGeneral
}

// ProjectData holds the per-discipline data excerpts a run assembles for
// its roles. Sections are free text prepared by the (external) data layer.
type ProjectData struct {
	// SearchPerformance is the organic search snapshot (queries, positions).
	SearchPerformance string `yaml:"search_performance"`
	// ContentInventory covers published pages and content gaps.
	ContentInventory string `yaml:"content_inventory"`
	// BacklinkProfile covers referring domains and link opportunities.
	BacklinkProfile string `yaml:"backlink_profile"`
	// AdCampaigns covers paid campaign performance.
	AdCampaigns string `yaml:"ad_campaigns"`
	// TechnicalAudit covers crawl errors, speed, and indexing issues.
	TechnicalAudit string `yaml:"technical_audit"`
	// AnalyticsSnapshot covers traffic and engagement metrics.
	AnalyticsSnapshot string `yaml:"analytics_snapshot"`
	// ConversionFunnel covers goal completions and funnel drop-off.
	ConversionFunnel string `yaml:"conversion_funnel"`
	// BusinessOverview is the generic fallback given to unmatched roles.
	BusinessOverview string `yaml:"business_overview"`
}

// ExcerptFor returns the data section for a specialty, falling back to
// the business overview when the section is empty.
func (d ProjectData) ExcerptFor(sp Specialty) string {
	var section string
	switch sp {
	case SpecialtySEO:
		section = d.SearchPerformance
	case SpecialtyContent:
		section = d.ContentInventory
	case SpecialtyLinks:
		section = d.BacklinkProfile
	case SpecialtyAds:
		section = d.AdCampaigns
	case SpecialtyTechnical:
		section = d.TechnicalAudit
	case SpecialtyAnalytics:
		section = d.AnalyticsSnapshot
	case SpecialtyConversion:
		section = d.ConversionFunnel
	}
	if section == "" {
		return d.BusinessOverview
	}
	return section
}
