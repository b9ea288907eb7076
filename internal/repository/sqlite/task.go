package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/sakif/tasklist/internal/apperror"
	"github.com/sakif/tasklist/internal/model"
	"github.com/sakif/tasklist/internal/repository"
)

// compile-time check that *TaskDB implements repository.TaskRepository
var _ repository.TaskRepository = (*TaskDB)(nil)

// TaskDB is the tasks-table view of a DB. It shares the parent's pool.
type TaskDB struct {
	conn *sql.DB
}

// Tasks returns the task store backed by this database.
func (db *DB) Tasks() *TaskDB {
	return &TaskDB{conn: db.conn}
}

// ListByOwner returns the owner's tasks, newest first.
//
// ORDER BY id DESC works as "newest first" because AUTOINCREMENT ids only
// ever grow. The slice is never nil, so it encodes as [] rather than null.
func (t *TaskDB) ListByOwner(ctx context.Context, owner string) ([]model.Task, error) {
	rows, err := t.conn.QueryContext(ctx,
		`SELECT id, title, completed, owner_email
		 FROM tasks
		 WHERE owner_email = ?
		 ORDER BY id DESC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks: %w", err)
	}
	// CRITICAL: always close rows when done!
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		var task model.Task
		if err := rows.Scan(&task.ID, &task.Title, &task.Completed, &task.OwnerEmail); err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}

	return tasks, nil
}

// Create inserts a task and fills in task.ID from the AUTOINCREMENT column.
//
// The foreign key on owner_email turns "owner doesn't exist" into a
// constraint failure, which we report as the owning user not being found.
func (t *TaskDB) Create(ctx context.Context, task *model.Task) error {
	result, err := t.conn.ExecContext(ctx,
		`INSERT INTO tasks (title, completed, owner_email) VALUES (?, ?, ?)`,
		task.Title,
		task.Completed,
		task.OwnerEmail,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return apperror.NotFound("user", task.OwnerEmail)
		}
		return fmt.Errorf("sqlite: creating task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new task id: %w", err)
	}
	task.ID = id

	return nil
}

// SetCompleted updates the completed flag of one of the owner's tasks.
//
// ATOMIC OWNERSHIP CHECK:
// The WHERE clause carries BOTH the id and the owner. The check and the
// mutation are one statement, so there is no moment where the row has been
// "verified" but not yet written. RowsAffected() == 0 covers both "no such
// id" and "someone else's id", and both become NotFound.
func (t *TaskDB) SetCompleted(ctx context.Context, owner string, id int64, completed bool) error {
	result, err := t.conn.ExecContext(ctx,
		`UPDATE tasks SET completed = ? WHERE id = ? AND owner_email = ?`,
		completed,
		id,
		owner,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating task %d: %w", id, err)
	}

	return notFoundIfUnaffected(result, id)
}

// Delete removes one of the owner's tasks. Same ownership rule as SetCompleted.
func (t *TaskDB) Delete(ctx context.Context, owner string, id int64) error {
	result, err := t.conn.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND owner_email = ?`,
		id,
		owner,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %d: %w", id, err)
	}

	return notFoundIfUnaffected(result, id)
}

func notFoundIfUnaffected(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("task", strconv.FormatInt(id, 10))
	}
	return nil
}
