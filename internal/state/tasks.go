package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rankpilot/rankpilot/pkg/models"
)

// SaveTasks stores synthesized tasks in one transaction.
func (db *DB) SaveTasks(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	return db.Transaction(func(tx *sql.Tx) error {
		for _, t := range tasks {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO tasks (id, run_id, title, description, category, priority,
					assigned_role, due_date, success_metric, estimated_impact, status, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, t.ID, t.RunID, t.Title, t.Description, t.Category, t.Priority,
				t.AssignedRole, t.DueDate, t.SuccessMetric, t.EstimatedImpact,
				string(t.Status), formatTime(t.CreatedAt))
			if err != nil {
				return fmt.Errorf("insert task %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// TasksForRun returns the tasks synthesized during one run.
func (db *DB) TasksForRun(ctx context.Context, runID string) ([]models.Task, error) {
	return db.queryTasks(ctx, `WHERE run_id = ?`, runID)
}

// PendingTasks returns every task still in pending status, oldest first.
func (db *DB) PendingTasks(ctx context.Context) ([]models.Task, error) {
	return db.queryTasks(ctx, `WHERE status = ?`, string(models.TaskStatusPending))
}

// UpdateTaskStatus moves one task to a new status.
func (db *DB) UpdateTaskStatus(ctx context.Context, taskID string, status models.TaskStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid task status: %s", status)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE tasks SET status = ? WHERE id = ?`, string(status), taskID)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task not found: %s", taskID)
	}
	return nil
}

func (db *DB) queryTasks(ctx context.Context, where string, args ...any) ([]models.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, run_id, title, description, category, priority,
			assigned_role, due_date, success_metric, estimated_impact, status, created_at
		FROM tasks `+where+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		var status, createdAt string
		if err := rows.Scan(&t.ID, &t.RunID, &t.Title, &t.Description, &t.Category, &t.Priority,
			&t.AssignedRole, &t.DueDate, &t.SuccessMetric, &t.EstimatedImpact, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Status = models.TaskStatus(status)
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
