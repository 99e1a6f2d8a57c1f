package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"taskhub/internal/models"
)

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, scope models.Scope, id int64) (*models.Task, error)
	List(ctx context.Context, scope models.Scope, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, scope models.Scope, id int64, req *models.UpdateTaskRequest) (*models.Task, error)
	SetCompleted(ctx context.Context, scope models.Scope, id int64, completed bool) (*models.Task, error)
	Delete(ctx context.Context, scope models.Scope, id int64) error
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, title, description, completed, user_id, created_at`

func scanTask(row *sql.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.UserID, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ownerClause appends the row-ownership predicate unless the scope is
// elevated. argPos is the next free placeholder index.
func ownerClause(scope models.Scope, args []any, argPos int) (string, []any, int) {
	if scope.Superuser {
		return "", args, argPos
	}
	clause := fmt.Sprintf(" AND user_id = $%d", argPos)
	return clause, append(args, scope.UserID), argPos + 1
}

// escapeLike backslash-escapes LIKE metacharacters so a search term is
// matched literally inside the ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (title, description, completed, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	return r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Completed, task.UserID,
	).Scan(&task.ID, &task.CreatedAt)
}

func (r *taskRepository) GetByID(ctx context.Context, scope models.Scope, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	args := []any{id}
	clause, args, _ := ownerClause(scope, args, 2)
	query += clause

	return scanTask(r.db.QueryRowContext(ctx, query, args...))
}

func (r *taskRepository) List(ctx context.Context, scope models.Scope, filter models.TaskFilter) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE TRUE`
	args := []any{}
	argPos := 1

	var clause string
	clause, args, argPos = ownerClause(scope, args, argPos)
	query += clause

	if filter.Search != "" {
		query += fmt.Sprintf(" AND (title ILIKE '%%' || $%d || '%%' ESCAPE '\\' OR description ILIKE '%%' || $%d || '%%' ESCAPE '\\')", argPos, argPos)
		args = append(args, escapeLike(filter.Search))
		argPos++
	}
	if filter.Completed != nil {
		query += fmt.Sprintf(" AND completed = $%d", argPos)
		args = append(args, *filter.Completed)
		argPos++
	}
	if filter.CreatedFrom != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argPos)
		args = append(args, *filter.CreatedFrom)
		argPos++
	}
	if filter.CreatedTo != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argPos)
		args = append(args, *filter.CreatedTo)
		argPos++
	}

	if filter.OrderDesc {
		query += " ORDER BY created_at DESC"
	} else {
		query += " ORDER BY created_at ASC"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.UserID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, scope models.Scope, id int64, req *models.UpdateTaskRequest) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET title = COALESCE($1, title),
			description = COALESCE($2, description)
		WHERE id = $3
	`
	args := []any{req.Title, req.Description, id}
	clause, args, _ := ownerClause(scope, args, 4)
	query += clause
	query += ` RETURNING ` + taskColumns

	return scanTask(r.db.QueryRowContext(ctx, query, args...))
}

func (r *taskRepository) SetCompleted(ctx context.Context, scope models.Scope, id int64, completed bool) (*models.Task, error) {
	// Unconditional write: setting an already-set flag is a no-op, which
	// keeps the action idempotent while still returning the current row.
	query := `UPDATE tasks SET completed = $1 WHERE id = $2`
	args := []any{completed, id}
	clause, args, _ := ownerClause(scope, args, 3)
	query += clause
	query += ` RETURNING ` + taskColumns

	return scanTask(r.db.QueryRowContext(ctx, query, args...))
}

func (r *taskRepository) Delete(ctx context.Context, scope models.Scope, id int64) error {
	query := `DELETE FROM tasks WHERE id = $1`
	args := []any{id}
	clause, args, _ := ownerClause(scope, args, 2)
	query += clause

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkAffected(res)
}
