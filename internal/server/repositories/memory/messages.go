package memory

import (
	"context"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

type messageRepo struct {
	s *Store
}

func (r *messageRepo) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	known := false
	for _, u := range r.s.users {
		if u.ConversationID == msg.ConversationID {
			known = true
			break
		}
	}
	if !known {
		return nil, common.ErrorNotFound
	}

	c := *msg
	r.s.messages = append(r.s.messages, &c)
	return msg, nil
}

// Recent relies on append order, which matches (created_at, seq) as long
// as callers stamp messages with a non-decreasing clock.
func (r *messageRepo) Recent(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []*models.Message
	for _, m := range r.s.messages {
		if m.ConversationID == conversationID {
			all = append(all, m)
		}
	}
	if limit >= 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}

	result := make([]*models.Message, 0, len(all))
	for _, m := range all {
		c := *m
		result = append(result, &c)
	}
	return result, nil
}
