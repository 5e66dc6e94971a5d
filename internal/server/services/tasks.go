package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophtodo/internal/timex"
	"github.com/google/uuid"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// ListQuery selects one date bucket of the owner's tasks. A zero Limit
// means DefaultListLimit.
type ListQuery struct {
	Status     string
	TargetDate time.Time
	SortBy     string
	SortOrder  string
	Limit      int
	Offset     int
}

// TaskUpdate carries the optional fields of an update; nil leaves the field
// untouched.
type TaskUpdate struct {
	Description *string
	Status      *string
}

// TaskService is the task ledger: lifecycle transitions, date-bucketed
// queries and batch deletion, all scoped to an owner.
type TaskService struct {
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewTaskService(m repomanager.RepositoryManager) *TaskService {
	return &TaskService{repomanager: m, now: time.Now}
}

func (s *TaskService) clock() time.Time {
	return s.now().UTC()
}

func validateDescription(d string) (string, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return "", fmt.Errorf("%w: task description is required", common.ErrorInvalidArgument)
	}
	if utf8.RuneCountInString(d) > models.MaxDescriptionLength {
		return "", fmt.Errorf("%w: task description must be at most %d characters", common.ErrorInvalidArgument, models.MaxDescriptionLength)
	}
	return d, nil
}

func (s *TaskService) Create(ctx context.Context, owner, description string) (*models.Task, error) {
	d, err := validateDescription(description)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	task := &models.Task{
		ID:                 uuid.NewString(),
		UserID:             owner,
		Description:        d,
		CurrentStatus:      models.StatusActive,
		CreatedAt:          now,
		ModifiedAt:         now,
		LastStatusChangeAt: now,
	}

	t, err := s.repomanager.Tasks(s.repomanager.Conn()).Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	return t, nil
}

// owned loads a task and checks that owner may act on it.
func owned(ctx context.Context, repo interface {
	GetByID(ctx context.Context, id string) (*models.Task, error)
}, owner, taskID string) (*models.Task, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, fmt.Errorf("%w: task not found", common.ErrorNotFound)
	}

	t, err := repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: task not found", common.ErrorNotFound)
		}
		return nil, fmt.Errorf("error loading task: %w", err)
	}
	if t.UserID != owner {
		return nil, fmt.Errorf("%w: not authorized to access this task", common.ErrorForbidden)
	}
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, owner, taskID string) (*models.Task, error) {
	return owned(ctx, s.repomanager.Tasks(s.repomanager.Conn()), owner, taskID)
}

// Update applies a partial update. A status write that changes the status
// records the previous one and the change time; any write bumps ModifiedAt.
func (s *TaskService) Update(ctx context.Context, owner, taskID string, upd TaskUpdate) (*models.Task, error) {
	var desc string
	if upd.Description != nil {
		d, err := validateDescription(*upd.Description)
		if err != nil {
			return nil, err
		}
		desc = d
	}
	if upd.Status != nil && !models.ValidStatus(*upd.Status) {
		return nil, fmt.Errorf("%w: invalid status %q", common.ErrorInvalidArgument, *upd.Status)
	}

	var result *models.Task
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		t, err := owned(ctx, repo, owner, taskID)
		if err != nil {
			return err
		}

		if upd.Description == nil && upd.Status == nil {
			result = t
			return nil
		}

		now := s.clock()
		if upd.Description != nil {
			t.Description = desc
		}
		if upd.Status != nil {
			t.SetStatus(*upd.Status, now)
		}
		t.ModifiedAt = now

		result, err = repo.Update(ctx, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *TaskService) Delete(ctx context.Context, owner, taskID string) error {
	return s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)
		if _, err := owned(ctx, repo, owner, taskID); err != nil {
			return err
		}
		return repo.Delete(ctx, taskID)
	})
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// BatchDelete deletes every listed task or none of them. If any id is
// missing or owned by someone else the result is a
// *common.BatchAuthorizationError naming those ids.
func (s *TaskService) BatchDelete(ctx context.Context, owner string, ids []string) (int64, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no task ids provided", common.ErrorInvalidArgument)
	}

	var valid, rejected []string
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			rejected = append(rejected, id)
			continue
		}
		valid = append(valid, id)
	}

	var deleted int64
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		found, err := repo.SelectOwnedIDs(ctx, owner, valid)
		if err != nil {
			return err
		}

		if len(found) != len(valid) || len(rejected) > 0 {
			have := make(map[string]struct{}, len(found))
			for _, id := range found {
				have[id] = struct{}{}
			}
			var missing []string
			for _, id := range ids {
				if _, ok := have[id]; !ok {
					missing = append(missing, id)
				}
			}
			return &common.BatchAuthorizationError{IDs: missing}
		}

		deleted, err = repo.DeleteByIDs(ctx, owner, valid)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// bucket translates a status and calendar day into a storage filter:
//
//	"", active  created that day, any current status
//	completed   completed and last changed that day
//	backlog     backlog and last changed on or before that day
func bucket(owner, status string, day time.Time) (models.TaskFilter, error) {
	start, end := timex.DayRange(day)
	f := models.TaskFilter{UserID: owner, Status: status}

	switch status {
	case "", models.StatusActive:
		f.Status = ""
		f.CreatedFrom, f.CreatedTo = start, end
	case models.StatusCompleted:
		f.ChangedFrom, f.ChangedTo = start, end
	case models.StatusBacklog:
		f.ChangedTo = end
	default:
		return models.TaskFilter{}, fmt.Errorf("%w: invalid status %q", common.ErrorInvalidArgument, status)
	}
	return f, nil
}

func (s *TaskService) targetDay(d time.Time) time.Time {
	if d.IsZero() {
		return s.clock()
	}
	return d
}

func parseSort(by, order string) (models.TaskSort, error) {
	if by == "" && order == "" {
		return models.TaskSort{Field: models.SortCreatedAt, Desc: true}, nil
	}
	if by == "" {
		by = models.SortCreatedAt
	}
	if !models.ValidSortField(by) {
		return models.TaskSort{}, fmt.Errorf("%w: invalid sort_by field %q", common.ErrorInvalidArgument, by)
	}

	switch strings.ToLower(order) {
	case "", "asc":
		return models.TaskSort{Field: by}, nil
	case "desc":
		return models.TaskSort{Field: by, Desc: true}, nil
	}
	return models.TaskSort{}, fmt.Errorf("%w: invalid sort_order %q", common.ErrorInvalidArgument, order)
}

func (s *TaskService) List(ctx context.Context, owner string, q ListQuery) ([]*models.Task, error) {
	filter, err := bucket(owner, q.Status, s.targetDay(q.TargetDate))
	if err != nil {
		return nil, err
	}

	order, err := parseSort(q.SortBy, q.SortOrder)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", common.ErrorInvalidArgument, MaxListLimit)
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", common.ErrorInvalidArgument)
	}

	return s.repomanager.Tasks(s.repomanager.Conn()).List(ctx, filter, order, limit, q.Offset)
}

// Counts reports the size of each status bucket for day.
func (s *TaskService) Counts(ctx context.Context, owner string, day time.Time) (models.TaskStatusCounts, error) {
	day = s.targetDay(day)
	repo := s.repomanager.Tasks(s.repomanager.Conn())

	var c models.TaskStatusCounts
	for _, st := range []struct {
		status string
		dst    *int64
	}{
		{models.StatusActive, &c.Active},
		{models.StatusCompleted, &c.Completed},
		{models.StatusBacklog, &c.Backlog},
	} {
		f, err := bucket(owner, st.status, day)
		if err != nil {
			return models.TaskStatusCounts{}, err
		}
		n, err := repo.Count(ctx, f)
		if err != nil {
			return models.TaskStatusCounts{}, err
		}
		*st.dst = n
	}
	c.Total = c.Active + c.Completed + c.Backlog
	return c, nil
}

// SweepBacklog moves the owner's active tasks created before today to
// backlog. Running it twice for the same day changes nothing the second
// time.
func (s *TaskService) SweepBacklog(ctx context.Context, owner string, today time.Time) (int64, error) {
	n, err := s.repomanager.Tasks(s.repomanager.Conn()).MarkBacklog(ctx, owner, timex.StartOfDay(s.targetDay(today)), s.clock())
	if err != nil {
		return 0, fmt.Errorf("error marking backlog: %w", err)
	}
	return n, nil
}
