package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rankpilot/rankpilot/pkg/models"
)

// SaveRun stores a completed run, its per-role results, and its plans in
// one transaction. Plans are stored as JSON and may be nil.
func (db *DB) SaveRun(ctx context.Context, summary models.OrchestratorSummary, results []models.AgentResult, strategic *models.StrategicPlan, daily []models.DayPlan) error {
	var strategicJSON, dailyJSON sql.NullString
	if strategic != nil {
		raw, err := json.Marshal(strategic)
		if err != nil {
			return fmt.Errorf("marshal strategic plan: %w", err)
		}
		strategicJSON = sql.NullString{String: string(raw), Valid: true}
	}
	if len(daily) > 0 {
		raw, err := json.Marshal(daily)
		if err != nil {
			return fmt.Errorf("marshal daily plan: %w", err)
		}
		dailyJSON = sql.NullString{String: string(raw), Valid: true}
	}

	return db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, results_count, success_count, tasks_created, daily_tasks_created,
				has_strategic_plan, daily_plan_days, strategic_plan, daily_plan, started_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, summary.RunID, summary.ResultsCount, summary.SuccessCount, summary.TasksCreated,
			summary.DailyTasksCreated, boolToInt(summary.HasStrategicPlan), summary.DailyPlanDays,
			strategicJSON, dailyJSON, formatTime(summary.StartedAt), formatTime(summary.CompletedAt))
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, r := range results {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO agent_results (run_id, role_id, title, emoji, status, text, started_at, completed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, summary.RunID, r.RoleID, r.Title, r.Emoji, string(r.Status), r.Text,
				formatTime(r.StartedAt), formatTime(r.CompletedAt))
			if err != nil {
				return fmt.Errorf("insert agent result for %s: %w", r.RoleID, err)
			}
		}
		return nil
	})
}

// RecentRuns returns up to limit run summaries, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]models.OrchestratorSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, results_count, success_count, tasks_created, daily_tasks_created,
			has_strategic_plan, daily_plan_days, started_at, completed_at
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var summaries []models.OrchestratorSummary
	for rows.Next() {
		var s models.OrchestratorSummary
		var hasPlan int
		var startedAt, completedAt string
		if err := rows.Scan(&s.RunID, &s.ResultsCount, &s.SuccessCount, &s.TasksCreated,
			&s.DailyTasksCreated, &hasPlan, &s.DailyPlanDays, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.HasStrategicPlan = hasPlan != 0
		if s.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if s.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// ResultsForRun returns the per-role results recorded for one run, in
// insertion order.
func (db *DB) ResultsForRun(ctx context.Context, runID string) ([]models.AgentResult, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT role_id, title, emoji, status, text, started_at, completed_at
		FROM agent_results WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query agent results: %w", err)
	}
	defer rows.Close()

	var results []models.AgentResult
	for rows.Next() {
		var r models.AgentResult
		var status, startedAt, completedAt string
		if err := rows.Scan(&r.RoleID, &r.Title, &r.Emoji, &status, &r.Text, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan agent result: %w", err)
		}
		r.Status = models.AgentResultStatus(status)
		if r.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if r.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// PlansForRun returns the stored strategic and daily plans for one run.
// Either may be nil when the run produced none.
func (db *DB) PlansForRun(ctx context.Context, runID string) (*models.StrategicPlan, []models.DayPlan, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var strategicJSON, dailyJSON sql.NullString
	err := db.conn.QueryRowContext(ctx,
		`SELECT strategic_plan, daily_plan FROM runs WHERE id = ?`, runID,
	).Scan(&strategicJSON, &dailyJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("query run plans: %w", err)
	}

	var strategic *models.StrategicPlan
	if strategicJSON.Valid {
		strategic = &models.StrategicPlan{}
		if err := json.Unmarshal([]byte(strategicJSON.String), strategic); err != nil {
			return nil, nil, fmt.Errorf("unmarshal strategic plan: %w", err)
		}
	}
	var daily []models.DayPlan
	if dailyJSON.Valid {
		if err := json.Unmarshal([]byte(dailyJSON.String), &daily); err != nil {
			return nil, nil, fmt.Errorf("unmarshal daily plan: %w", err)
		}
	}
	return strategic, daily, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
