package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rankpilot/rankpilot/internal/hierarchy"
	"github.com/rankpilot/rankpilot/internal/llm"
	"github.com/rankpilot/rankpilot/internal/synthesis"
	"github.com/rankpilot/rankpilot/pkg/models"
)

// RunPersister stores the outcome of a completed run. Like task
// persistence it is best-effort: failures are logged, never surfaced.
type RunPersister interface {
	SaveRun(ctx context.Context, summary models.OrchestratorSummary, results []models.AgentResult, strategic *models.StrategicPlan, daily []models.DayPlan) error
}

// RunOutcome is the full output of one orchestrator run.
type RunOutcome struct {
	Summary   models.OrchestratorSummary
	Results   []models.AgentResult
	Tasks     []models.Task
	Strategic *models.StrategicPlan
	Daily     []models.DayPlan
}

// Orchestrator drives a full run: one top-down agent round, an optional
// peer refinement pass, then plan synthesis over the collected reports.
type Orchestrator struct {
	scheduler   *RoundScheduler
	refiner     *Refiner
	synthesizer *synthesis.Synthesizer
	runs        RunPersister
	debugLog    func(format string, args ...interface{})
	now         func() time.Time
}

// Options tunes an Orchestrator.
type Options struct {
	// TaskStore persists synthesized tasks; nil disables persistence.
	TaskStore TaskPersister
	// RunStore persists completed runs; nil disables persistence.
	RunStore RunPersister
	// RefineGroupMax bounds peer critique groups; 0 means default.
	RefineGroupMax int
	// PlanDays is the daily plan length; 0 means default.
	PlanDays int
}

// New creates an orchestrator over the given completion backend.
func New(completer llm.Completer, opts Options) *Orchestrator {
	return &Orchestrator{
		scheduler:   NewRoundScheduler(completer, opts.TaskStore),
		refiner:     NewRefiner(completer, opts.RefineGroupMax),
		synthesizer: synthesis.NewSynthesizer(completer, opts.PlanDays),
		runs:        opts.RunStore,
		debugLog:    func(format string, args ...interface{}) {},
		now:         time.Now,
	}
}

// SetDebugLog sets the debug logging function on the orchestrator and
// its sub-passes.
func (o *Orchestrator) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn == nil {
		return
	}
	o.debugLog = fn
	o.scheduler.SetDebugLog(fn)
	o.refiner.SetDebugLog(fn)
}

// Execute runs the full pipeline for one request. It fails only when
// the hierarchy itself is broken; everything downstream degrades
// per-role or per-plan.
func (o *Orchestrator) Execute(ctx context.Context, req models.OrchestratorRequest, data ProjectData, skipRefinement bool) (*RunOutcome, error) {
	startedAt := o.now()

	round, err := o.scheduler.Run(ctx, req, data)
	if err != nil {
		return nil, fmt.Errorf("agent round: %w", err)
	}

	if !skipRefinement {
		// The resolver was validated during the round; a second New
		// on the same input cannot fail.
		resolver, rerr := hierarchy.New(req.Roles, req.Hierarchy)
		if rerr == nil {
			o.refiner.Refine(ctx, resolver, round)
		}
	}

	strategic, daily := o.synthesizer.Synthesize(ctx, o.rootReport(req, round), o.allReports(round))

	summary := models.OrchestratorSummary{
		RunID:             round.RunID,
		ResultsCount:      len(round.Results),
		SuccessCount:      round.SuccessCount(),
		TasksCreated:      len(round.Tasks),
		DailyTasksCreated: countDailyActions(daily),
		HasStrategicPlan:  strategic != nil,
		DailyPlanDays:     len(daily),
		StartedAt:         startedAt,
		CompletedAt:       o.now(),
	}

	if o.runs != nil {
		if err := o.runs.SaveRun(ctx, summary, round.Results, strategic, daily); err != nil {
			o.debugLog("[run %s] run persistence failed: %v", round.RunID, err)
		}
	}

	return &RunOutcome{
		Summary:   summary,
		Results:   round.Results,
		Tasks:     round.Tasks,
		Strategic: strategic,
		Daily:     daily,
	}, nil
}

// rootReport returns the first root role's report, falling back to the
// first successful report when the root failed.
func (o *Orchestrator) rootReport(req models.OrchestratorRequest, round *RoundResult) string {
	for _, role := range req.Roles {
		if _, isChild := req.Hierarchy[role.ID]; !isChild {
			if text, ok := round.Report(role.ID); ok {
				return text
			}
		}
	}
	for _, res := range round.Results {
		if res.Status == models.ResultSuccess {
			return res.Text
		}
	}
	return ""
}

// allReports collects every successful report in execution order.
func (o *Orchestrator) allReports(round *RoundResult) []string {
	var reports []string
	for _, res := range round.Results {
		if res.Status == models.ResultSuccess {
			reports = append(reports, res.Text)
		}
	}
	return reports
}

func countDailyActions(daily []models.DayPlan) int {
	n := 0
	for _, day := range daily {
		n += len(day.Actions)
	}
	return n
}
