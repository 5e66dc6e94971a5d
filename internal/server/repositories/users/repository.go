package users

import (
	"context"

	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

// Repository stores accounts. Usernames are compared as stored; callers
// normalize them first.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateUsername(ctx context.Context, id, username string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
