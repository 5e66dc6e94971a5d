package messages

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query :=
		`INSERT INTO chat_messages (id, conversation_id, is_user, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, msg.ID, msg.ConversationID, msg.IsUser, msg.Content, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return msg, nil
}

func (r *PostgresRepository) Recent(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	query :=
		`SELECT id, conversation_id, is_user, content, created_at FROM (
		     SELECT id, conversation_id, is_user, content, created_at, seq FROM chat_messages
		     WHERE conversation_id = $1
		     ORDER BY created_at DESC, seq DESC
		     LIMIT $2
		 ) latest
		 ORDER BY created_at ASC, seq ASC`

	rows, err := r.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Message, 0)
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.IsUser, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
