package models

import "time"

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusBacklog   = "backlog"
)

const MaxDescriptionLength = 1000

// ValidStatus reports whether s is one of the three lifecycle states.
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusCompleted, StatusBacklog:
		return true
	}
	return false
}

// Task is a single to-do item.
//
// LastStatusChangeAt moves only when CurrentStatus changes; PreviousStatus is
// the state right before that change and nil until the first one.
type Task struct {
	ID                 string    `json:"task_id"`
	UserID             string    `json:"user_id"`
	Description        string    `json:"task_description"`
	CurrentStatus      string    `json:"current_status"`
	PreviousStatus     *string   `json:"previous_status"`
	CreatedAt          time.Time `json:"created_at"`
	ModifiedAt         time.Time `json:"modified_at"`
	LastStatusChangeAt time.Time `json:"last_status_change_at"`
}

// SetStatus applies a status write at now. Writing the current status again
// only touches ModifiedAt.
func (t *Task) SetStatus(status string, now time.Time) {
	if status != t.CurrentStatus {
		prev := t.CurrentStatus
		t.PreviousStatus = &prev
		t.CurrentStatus = status
		t.LastStatusChangeAt = now
	}
	t.ModifiedAt = now
}

type TaskStatusCounts struct {
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Backlog   int64 `json:"backlog"`
	Total     int64 `json:"total"`
}

// TaskFilter narrows a task query for one owner. Empty Status and zero
// times leave that dimension unconstrained; time ranges are half-open.
type TaskFilter struct {
	UserID      string
	Status      string
	CreatedFrom time.Time
	CreatedTo   time.Time
	ChangedFrom time.Time
	ChangedTo   time.Time
}

func (f TaskFilter) Matches(t *Task) bool {
	if t.UserID != f.UserID {
		return false
	}
	if f.Status != "" && t.CurrentStatus != f.Status {
		return false
	}
	if !f.CreatedFrom.IsZero() && t.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && !t.CreatedAt.Before(f.CreatedTo) {
		return false
	}
	if !f.ChangedFrom.IsZero() && t.LastStatusChangeAt.Before(f.ChangedFrom) {
		return false
	}
	if !f.ChangedTo.IsZero() && !t.LastStatusChangeAt.Before(f.ChangedTo) {
		return false
	}
	return true
}

// Sortable task columns.
const (
	SortCreatedAt   = "created_at"
	SortModifiedAt  = "modified_at"
	SortDescription = "task_description"
	SortStatus      = "current_status"
)

func ValidSortField(f string) bool {
	switch f {
	case SortCreatedAt, SortModifiedAt, SortDescription, SortStatus:
		return true
	}
	return false
}

type TaskSort struct {
	Field string
	Desc  bool
}
