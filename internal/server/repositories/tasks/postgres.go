package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const taskColumns = `id, user_id, task_description, current_status, previous_status, created_at, modified_at, last_status_change_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	t := &models.Task{}
	var prev sql.NullString
	if err := row.Scan(&t.ID, &t.UserID, &t.Description, &t.CurrentStatus, &prev,
		&t.CreatedAt, &t.ModifiedAt, &t.LastStatusChangeAt); err != nil {
		return nil, err
	}
	if prev.Valid {
		t.PreviousStatus = &prev.String
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (` + taskColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Description, task.CurrentStatus, task.PreviousStatus,
		task.CreatedAt, task.ModifiedAt, task.LastStatusChangeAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`UPDATE tasks
		 SET task_description = $2, current_status = $3, previous_status = $4,
		     modified_at = $5, last_status_change_at = $6
		 WHERE id = $1 AND user_id = $7`

	res, err := r.db.ExecContext(ctx, query,
		task.ID, task.Description, task.CurrentStatus, task.PreviousStatus,
		task.ModifiedAt, task.LastStatusChangeAt, task.UserID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	} else if n == 0 {
		return nil, common.ErrorNotFound
	}

	return task, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("db error: %w", err)
	} else if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SelectOwnedIDs(ctx context.Context, userID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id FROM tasks WHERE user_id = $1 AND id IN (` + dbx.Placeholders(len(ids), 2) + `) FOR UPDATE`

	rows, err := r.db.QueryContext(ctx, query, dbx.Args([]any{userID}, ids)...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var owned []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		owned = append(owned, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return owned, nil
}

func (r *PostgresRepository) DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `DELETE FROM tasks WHERE user_id = $1 AND id IN (` + dbx.Placeholders(len(ids), 2) + `)`

	res, err := r.db.ExecContext(ctx, query, dbx.Args([]any{userID}, ids)...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// where renders the filter as a WHERE body; arguments are numbered from $1.
func where(f models.TaskFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{f.UserID}

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("current_status = $%d", f.Status)
	}
	if !f.CreatedFrom.IsZero() {
		add("created_at >= $%d", f.CreatedFrom)
	}
	if !f.CreatedTo.IsZero() {
		add("created_at < $%d", f.CreatedTo)
	}
	if !f.ChangedFrom.IsZero() {
		add("last_status_change_at >= $%d", f.ChangedFrom)
	}
	if !f.ChangedTo.IsZero() {
		add("last_status_change_at < $%d", f.ChangedTo)
	}

	return strings.Join(conds, " AND "), args
}

func orderBy(s models.TaskSort) string {
	field := s.Field
	if !models.ValidSortField(field) {
		field = models.SortCreatedAt
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return field + " " + dir + ", id " + dir
}

func (r *PostgresRepository) List(ctx context.Context, filter models.TaskFilter, sort models.TaskSort, limit, offset int) ([]*models.Task, error) {
	cond, args := where(filter)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		taskColumns, cond, orderBy(sort), len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, filter models.TaskFilter) (int64, error) {
	cond, args := where(filter)

	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE `+cond, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) MarkBacklog(ctx context.Context, userID string, createdBefore, now time.Time) (int64, error) {
	query :=
		`UPDATE tasks
		 SET previous_status = current_status, current_status = 'backlog',
		     last_status_change_at = $3, modified_at = $3
		 WHERE user_id = $1 AND current_status = 'active' AND created_at < $2`

	res, err := r.db.ExecContext(ctx, query, userID, createdBefore, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
