package tasks

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	// Update writes description, status fields and modified_at of an
	// existing task.
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	Delete(ctx context.Context, id string) error

	// SelectOwnedIDs returns the subset of ids that belong to userID,
	// locking those rows for the rest of the transaction.
	SelectOwnedIDs(ctx context.Context, userID string, ids []string) ([]string, error)
	DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error)

	List(ctx context.Context, filter models.TaskFilter, sort models.TaskSort, limit, offset int) ([]*models.Task, error)
	Count(ctx context.Context, filter models.TaskFilter) (int64, error)

	// MarkBacklog moves the user's active tasks created before the given
	// instant to backlog, stamping now as the change time.
	MarkBacklog(ctx context.Context, userID string, createdBefore, now time.Time) (int64, error)
}
