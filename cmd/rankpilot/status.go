package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rankpilot/rankpilot/internal/state"
	"github.com/rankpilot/rankpilot/pkg/models"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs and pending tasks",
	Long: `Display recent orchestrator runs and the tasks still pending.

Reads the project database (.rankpilot/state.db) when present, the
global one otherwise.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 5, "How many recent runs to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	dbPath := state.ProjectDBPath(cwd)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		dbPath = state.GlobalDBPath()
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No runs recorded yet. Run 'rankpilot orchestrate <orgchart.yaml>' to start.")
		return nil
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	ctx := context.Background()

	runs, err := db.RecentRuns(ctx, statusLimit)
	if err != nil {
		return fmt.Errorf("load recent runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Println("Recent runs:")
	for _, run := range runs {
		printRunLine(run)
	}

	pending, err := db.PendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("load pending tasks: %w", err)
	}
	if len(pending) > 0 {
		fmt.Printf("\nPending tasks (%d):\n", len(pending))
		for _, task := range pending {
			fmt.Printf("  [%s] %s (%s, %s)\n", task.AssignedRole, task.Title, task.Category, task.Priority)
		}
	}
	return nil
}

func printRunLine(run models.OrchestratorSummary) {
	status := color.GreenString("ok")
	if run.SuccessCount < run.ResultsCount {
		status = color.YellowString("%d failed", run.ResultsCount-run.SuccessCount)
	}

	plan := ""
	if run.HasStrategicPlan {
		plan = ", strategic plan"
	}
	if run.DailyPlanDays > 0 {
		plan += fmt.Sprintf(", %d-day calendar", run.DailyPlanDays)
	}

	fmt.Printf("  %s  %s  %d/%d roles (%s), %d tasks%s\n",
		run.StartedAt.Local().Format(time.DateTime),
		shortID(run.RunID),
		run.SuccessCount, run.ResultsCount, status,
		run.TasksCreated, plan)
}

// shortID truncates a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
