// Package services contains server-side business logic: accounts and
// sessions, the task ledger, and the chat transcript.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/config"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const TokenTypeBearer = "bearer"

// UserService handles registration, login and bearer-token resolution.
type UserService struct {
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	bcryptCost                  int
	now                         func() time.Time
}

func NewUserService(m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		bcryptCost:                  bcrypt.DefaultCost,
		now:                         time.Now,
	}
}

// NormalizeUsername is the canonical form used for storage and lookup.
func NormalizeUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func validateUsername(name string) error {
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return fmt.Errorf("%w: username is required", common.ErrorInvalidArgument)
	}
	if n > models.MaxUsernameLength {
		return fmt.Errorf("%w: username must be at most %d characters", common.ErrorInvalidArgument, models.MaxUsernameLength)
	}
	return nil
}

// Register creates a verified account. Usernames are unique ignoring case
// and surrounding whitespace.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	name := NormalizeUsername(username)
	if err := validateUsername(name); err != nil {
		return nil, err
	}
	if len(password) < models.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorInvalidArgument, models.MinPasswordLength)
	}

	repo := s.repomanager.Users(s.repomanager.Conn())

	if _, err := repo.GetByUsername(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: username already registered", common.ErrorConflict)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:             uuid.NewString(),
		UserName:       name,
		PasswordHash:   hash,
		IsVerified:     true,
		CreatedAt:      s.now().UTC(),
		ConversationID: uuid.NewString(),
	}

	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: username already registered", common.ErrorConflict)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Authenticate checks credentials and mints a session token. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.Session, error) {
	repo := s.repomanager.Users(s.repomanager.Conn())

	user, err := repo.GetByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorInvalidCredentials
	}
	if !user.IsVerified {
		return nil, common.ErrorNotVerified
	}

	token, err := auth.GenerateToken(user.ID, user.UserName, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	return &models.Session{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		Username:    user.UserName,
		UserID:      user.ID,
	}, nil
}

// Resolve maps a bearer token to its current user. Any failure, including a
// valid token for a deleted account, is ErrorUnauthenticated.
func (s *UserService) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorUnauthenticated, err)
	}

	user, err := s.repomanager.Users(s.repomanager.Conn()).GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", common.ErrorUnauthenticated)
		}
		return nil, fmt.Errorf("error resolving user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.repomanager.Conn()).GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repomanager.Users(s.repomanager.Conn()).GetByUsername(ctx, NormalizeUsername(username))
}

// Rename changes the caller's username. Renaming to the current name is a
// no-op.
func (s *UserService) Rename(ctx context.Context, userID, newUsername string) (*models.User, error) {
	name := NormalizeUsername(newUsername)
	if err := validateUsername(name); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.repomanager.Conn())

	current, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current.UserName == name {
		return current, nil
	}

	u, err := repo.UpdateUsername(ctx, userID, name)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: username already taken", common.ErrorConflict)
		}
		return nil, err
	}
	return u, nil
}

// Delete removes the account together with its tasks and transcript.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	return s.repomanager.Users(s.repomanager.Conn()).Delete(ctx, userID)
}
