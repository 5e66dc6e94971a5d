package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

type taskRepo struct {
	s *Store
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	if t.PreviousStatus != nil {
		p := *t.PreviousStatus
		c.PreviousStatus = &p
	}
	return &c
}

func (r *taskRepo) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[task.UserID]; !ok {
		return nil, common.ErrorNotFound
	}
	if _, ok := r.s.tasks[task.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}
	r.s.tasks[task.ID] = cloneTask(task)
	return task, nil
}

func (r *taskRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneTask(t), nil
}

func (r *taskRepo) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.tasks[task.ID]
	if !ok || cur.UserID != task.UserID {
		return nil, common.ErrorNotFound
	}
	updated := cloneTask(task)
	updated.CreatedAt = cur.CreatedAt
	r.s.tasks[task.ID] = updated
	return task, nil
}

func (r *taskRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func (r *taskRepo) SelectOwnedIDs(ctx context.Context, userID string, ids []string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var owned []string
	for _, id := range ids {
		if t, ok := r.s.tasks[id]; ok && t.UserID == userID {
			owned = append(owned, id)
		}
	}
	return owned, nil
}

func (r *taskRepo) DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, id := range ids {
		if t, ok := r.s.tasks[id]; ok && t.UserID == userID {
			delete(r.s.tasks, id)
			n++
		}
	}
	return n, nil
}

func (r *taskRepo) matching(filter models.TaskFilter) []*models.Task {
	var out []*models.Task
	for _, t := range r.s.tasks {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

func compareTasks(a, b *models.Task, field string) int {
	switch field {
	case models.SortModifiedAt:
		return a.ModifiedAt.Compare(b.ModifiedAt)
	case models.SortDescription:
		return strings.Compare(a.Description, b.Description)
	case models.SortStatus:
		return strings.Compare(a.CurrentStatus, b.CurrentStatus)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (r *taskRepo) List(ctx context.Context, filter models.TaskFilter, order models.TaskSort, limit, offset int) ([]*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	found := r.matching(filter)
	sort.Slice(found, func(i, j int) bool {
		c := compareTasks(found[i], found[j], order.Field)
		if c == 0 {
			c = strings.Compare(found[i].ID, found[j].ID)
		}
		if order.Desc {
			return c > 0
		}
		return c < 0
	})

	result := make([]*models.Task, 0)
	for i := offset; i < len(found) && len(result) < limit; i++ {
		result = append(result, cloneTask(found[i]))
	}
	return result, nil
}

func (r *taskRepo) Count(ctx context.Context, filter models.TaskFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return int64(len(r.matching(filter))), nil
}

func (r *taskRepo) MarkBacklog(ctx context.Context, userID string, createdBefore, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, t := range r.s.tasks {
		if t.UserID == userID && t.CurrentStatus == models.StatusActive && t.CreatedAt.Before(createdBefore) {
			t.SetStatus(models.StatusBacklog, now)
			n++
		}
	}
	return n, nil
}
