package messages

import (
	"context"

	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	// Recent returns the latest limit messages of a conversation, oldest first.
	Recent(ctx context.Context, conversationID string, limit int) ([]*models.Message, error)
}
