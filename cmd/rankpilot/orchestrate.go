package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rankpilot/rankpilot/internal/config"
	"github.com/rankpilot/rankpilot/internal/llm"
	"github.com/rankpilot/rankpilot/internal/orchestrator"
	"github.com/rankpilot/rankpilot/internal/state"
	"github.com/rankpilot/rankpilot/internal/synthesis"
	"github.com/rankpilot/rankpilot/pkg/models"
)

var (
	orchestrateDataPath string
	orchestrateNoStore  bool
	orchestrateMock     bool
)

var orchestrateCmd = &cobra.Command{
	Use:   "orchestrate <orgchart.yaml>",
	Short: "Run an agent team from an organizational chart",
	Long: `Load an organizational chart from YAML and run one full round.

Roles execute top-down: the root first, then each level below it. Every
role sees its superior's report as a directive plus the reports of peers
that already ran. After the round, peer groups critique each other's
output, and the collected reports are synthesized into a weekly strategic
plan and a daily action calendar.

Results, tasks, and plans are stored in the local database unless
--no-store is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runOrchestrate,
}

func init() {
	orchestrateCmd.Flags().StringVar(&orchestrateDataPath, "data", "", "Project data YAML fed into role prompts")
	orchestrateCmd.Flags().BoolVar(&orchestrateNoStore, "no-store", false, "Skip persisting the run")
	orchestrateCmd.Flags().BoolVar(&orchestrateMock, "mock", false, "Echo prompts instead of calling the model")
}

func runOrchestrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := setupDebugLogging(cfg)

	chart, err := orchestrator.LoadOrgChart(args[0])
	if err != nil {
		return err
	}
	data, err := orchestrator.LoadProjectData(orchestrateDataPath)
	if err != nil {
		return err
	}

	completer, err := buildCompleter(cfg, orchestrateMock)
	if err != nil {
		return err
	}

	opts := orchestrator.Options{
		RefineGroupMax: cfg.Engine.RefineGroupMax,
		PlanDays:       cfg.Engine.DailyPlanDays,
	}

	var db *state.DB
	if !orchestrateNoStore {
		db, err = openStateDB()
		if err != nil {
			return err
		}
		defer db.Close()
		opts.TaskStore = db
		opts.RunStore = db
	}

	orch := orchestrator.New(completer, opts)
	if logger != nil {
		orch.SetDebugLog(logger.Log)
		synthesis.SetLogf(logger.Log)
	}

	req := models.OrchestratorRequest{
		Roles:       chart.Roles,
		Hierarchy:   chart.Hierarchy,
		TriggerType: "manual",
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Running %d roles...\n\n", len(chart.Roles))
	outcome, err := orch.Execute(ctx, req, data, cfg.Engine.SkipRefinement)
	if err != nil {
		return err
	}

	printOutcome(outcome, completer)
	return nil
}

func printOutcome(outcome *orchestrator.RunOutcome, completer llm.Completer) {
	success := color.New(color.FgGreen)
	failed := color.New(color.FgRed)

	for _, res := range outcome.Results {
		if res.Status == models.ResultSuccess {
			success.Printf("✓ %s %s\n", res.Emoji, res.Title)
		} else {
			failed.Printf("✗ %s %s: %s\n", res.Emoji, res.Title, res.Text)
		}
	}

	s := outcome.Summary
	fmt.Println()
	fmt.Printf("Run %s: %d/%d roles succeeded, %d tasks created\n",
		s.RunID, s.SuccessCount, s.ResultsCount, s.TasksCreated)

	if outcome.Strategic != nil {
		fmt.Printf("Strategic plan: %s\n", outcome.Strategic.WeekTheme)
		for _, goal := range outcome.Strategic.TopGoals {
			fmt.Printf("  • %s\n", goal)
		}
	}
	if len(outcome.Daily) > 0 {
		fmt.Printf("Daily plan: %d days, %d actions\n", s.DailyPlanDays, s.DailyTasksCreated)
		for _, day := range outcome.Daily {
			fmt.Printf("  %s  %s (%d actions)\n", day.Date, day.Theme, len(day.Actions))
		}
	}

	if client, ok := completer.(*llm.Client); ok {
		input, output := client.Tracker().Total()
		fmt.Printf("\nTokens: %d in / %d out across %d calls (est. $%.4f)\n",
			input, output, client.Tracker().Calls(), client.Tracker().Cost())
	}
}

// openStateDB opens the project database when a .rankpilot directory
// exists, the global one otherwise.
func openStateDB() (*state.DB, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	dbPath := state.ProjectDBPath(cwd)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		dbPath = state.GlobalDBPath()
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}
