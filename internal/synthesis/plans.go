package synthesis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rankpilot/rankpilot/internal/llm"
	"github.com/rankpilot/rankpilot/pkg/models"
)

// defaultPlanDays is how many business days the daily plan covers.
const defaultPlanDays = 5

// reportBudget truncates each collected report inside synthesis prompts.
const reportBudget = 1500

// Synthesizer produces the strategic and daily plans for one orchestrator
// run from the root role's output plus all collected reports.
type Synthesizer struct {
	completer llm.Completer
	planDays  int
	now       func() time.Time
}

// NewSynthesizer creates a synthesizer over the given completion backend.
// planDays <= 0 keeps the default of 5 business days.
func NewSynthesizer(completer llm.Completer, planDays int) *Synthesizer {
	if planDays <= 0 {
		planDays = defaultPlanDays
	}
	return &Synthesizer{completer: completer, planDays: planDays, now: time.Now}
}

// Synthesize runs the strategic and daily syntheses in parallel. Each is
// independently best-effort: a failed or unparsable response yields a nil
// plan, never an error, so the surrounding run always completes.
func (s *Synthesizer) Synthesize(ctx context.Context, rootReport string, reports []string) (*models.StrategicPlan, []models.DayPlan) {
	var (
		wg        sync.WaitGroup
		strategic *models.StrategicPlan
		daily     []models.DayPlan
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		strategic = s.strategicPlan(ctx, rootReport, reports)
	}()
	go func() {
		defer wg.Done()
		daily = s.dailyPlan(ctx, rootReport, reports)
	}()
	wg.Wait()

	return strategic, daily
}

func (s *Synthesizer) strategicPlan(ctx context.Context, rootReport string, reports []string) *models.StrategicPlan {
	prompt := fmt.Sprintf(`Based on the leadership report and team reports below, produce the week's strategic plan.

Leadership report:
%s

Team reports:
%s

Respond with a single JSON object with these keys:
"weekTheme" (string), "topGoals" (array of strings), "dailyFocus" (object mapping weekday name to focus), "kpisToWatch" (array of strings), "riskAlert" (string), "quickWins" (array of strings).`,
		truncate(rootReport, reportBudget), joinReports(reports))

	resp, err := s.completer.Complete(ctx, "You are a marketing strategy synthesizer. Respond only with JSON.", prompt)
	if err != nil {
		debugf("strategic synthesis failed: %v", err)
		return nil
	}

	var plan models.StrategicPlan
	if !DecodeObject(resp, &plan) {
		debugf("strategic synthesis: no parsable object in response")
		return nil
	}
	if plan.WeekTheme == "" && len(plan.TopGoals) == 0 {
		return nil
	}
	return &plan
}

func (s *Synthesizer) dailyPlan(ctx context.Context, rootReport string, reports []string) []models.DayPlan {
	days := NextBusinessDays(s.now(), s.planDays)
	var dates []string
	for _, d := range days {
		dates = append(dates, d.Format("2006-01-02"))
	}

	prompt := fmt.Sprintf(`Based on the leadership report and team reports below, plan the next %d business days (%s).

Leadership report:
%s

Team reports:
%s

Respond with a JSON array, one object per day, each with:
"date" (YYYY-MM-DD), "theme" (string), "kpiTargets" (array of strings), "actions" (array of {"time","task","priority"}).`,
		s.planDays, strings.Join(dates, ", "),
		truncate(rootReport, reportBudget), joinReports(reports))

	resp, err := s.completer.Complete(ctx, "You are a marketing planner. Respond only with JSON.", prompt)
	if err != nil {
		debugf("daily synthesis failed: %v", err)
		return nil
	}

	var plan []models.DayPlan
	if !DecodeArray(resp, &plan) || len(plan) == 0 {
		debugf("daily synthesis: no parsable array in response")
		return nil
	}

	// Degraded fallback: when the model returned days without populated
	// action lists or with bogus dates, re-map what parsed onto the
	// expected business-day calendar.
	if !wellFormedDays(plan) {
		plan = remapOntoCalendar(plan, dates)
	}
	if len(plan) == 0 {
		return nil
	}
	return plan
}

// wellFormedDays reports whether every parsed day carries actions.
func wellFormedDays(plan []models.DayPlan) bool {
	for _, day := range plan {
		if len(day.Actions) == 0 {
			return false
		}
	}
	return true
}

// remapOntoCalendar aligns parsed days with the expected dates, dropping
// days beyond the calendar and backfilling a minimal action from the theme.
func remapOntoCalendar(plan []models.DayPlan, dates []string) []models.DayPlan {
	var out []models.DayPlan
	for i, date := range dates {
		if i >= len(plan) {
			break
		}
		day := plan[i]
		day.Date = date
		if len(day.Actions) == 0 && day.Theme != "" {
			day.Actions = []models.DayAction{{Task: day.Theme}}
		}
		if len(day.Actions) == 0 {
			continue
		}
		out = append(out, day)
	}
	return out
}

func joinReports(reports []string) string {
	var b strings.Builder
	for i, r := range reports {
		fmt.Fprintf(&b, "--- Report %d ---\n%s\n\n", i+1, truncate(r, reportBudget))
	}
	if b.Len() == 0 {
		return "(no team reports)"
	}
	return b.String()
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
