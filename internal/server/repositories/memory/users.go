package memory

import (
	"context"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

type userRepo struct {
	s *Store
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &c
}

func (r *userRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.UserName == user.UserName || u.ConversationID == user.ConversationID {
			return nil, common.ErrorAlreadyExists
		}
	}
	if _, ok := r.s.users[user.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}

	r.s.users[user.ID] = cloneUser(user)
	return user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.UserName == username {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) UpdateUsername(ctx context.Context, id, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	for _, other := range r.s.users {
		if other.ID != id && other.UserName == username {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.UserName = username
	return cloneUser(u), nil
}

// Delete cascades to the user's tasks and transcript.
func (r *userRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, id)

	for tid, t := range r.s.tasks {
		if t.UserID == id {
			delete(r.s.tasks, tid)
		}
	}

	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if m.ConversationID != u.ConversationID {
			kept = append(kept, m)
		}
	}
	r.s.messages = kept

	return nil
}
