// Package tools exposes the task ledger as a fixed set of named, schema
// checked operations that a conversational agent (or an MCP client) can
// invoke on behalf of one authenticated user.
package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
)

// Kind names a tool.
type Kind string

const (
	CreateTask  Kind = "create_task"
	GetTask     Kind = "get_task"
	ListTasks   Kind = "list_tasks"
	UpdateTask  Kind = "update_task"
	DeleteTask  Kind = "delete_task"
	DeleteTasks Kind = "delete_tasks"
	CountTasks  Kind = "count_tasks"
	MarkBacklog Kind = "mark_backlog"
)

// Spec is the model-facing description of a tool.
type Spec struct {
	Name        Kind
	Description string
	Parameters  json.RawMessage
}

// Identity resolves bearer tokens.
type Identity interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// Ledger is the task surface the tools call into.
type Ledger interface {
	Create(ctx context.Context, owner, description string) (*models.Task, error)
	Get(ctx context.Context, owner, taskID string) (*models.Task, error)
	Update(ctx context.Context, owner, taskID string, upd services.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, owner, taskID string) error
	BatchDelete(ctx context.Context, owner string, ids []string) (int64, error)
	List(ctx context.Context, owner string, q services.ListQuery) ([]*models.Task, error)
	Counts(ctx context.Context, owner string, day time.Time) (models.TaskStatusCounts, error)
	SweepBacklog(ctx context.Context, owner string, today time.Time) (int64, error)
}
