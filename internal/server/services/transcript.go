package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TranscriptService appends to and reads back per-user chat transcripts.
type TranscriptService struct {
	repomanager repomanager.RepositoryManager
	now         func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewTranscriptService(m repomanager.RepositoryManager) *TranscriptService {
	return &TranscriptService{repomanager: m, now: time.Now}
}

// stamp never goes backwards, so appends from one process keep their order
// even if the wall clock steps back.
func (s *TranscriptService) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().UTC()
	if t.Before(s.last) {
		t = s.last
	}
	s.last = t
	return t
}

func (s *TranscriptService) Append(ctx context.Context, conversationID string, isUser bool, content string) (*models.Message, error) {
	msg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		IsUser:         isUser,
		Content:        content,
		CreatedAt:      s.stamp(),
	}

	m, err := s.repomanager.Messages(s.repomanager.Conn()).Create(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("error storing message: %w", err)
	}
	return m, nil
}

// Recent returns the latest limit entries, oldest first.
func (s *TranscriptService) Recent(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	msgs, err := s.repomanager.Messages(s.repomanager.Conn()).Recent(ctx, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("error loading transcript: %w", err)
	}
	return msgs, nil
}
