package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/server/config"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// clock is a settable time source shared by the services under test.
type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Set(t time.Time) { c.t = t }

type fixture struct {
	store       *memory.Store
	clock       *clock
	users       *UserService
	tasks       *TaskService
	transcripts *TranscriptService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	clk := &clock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	cfg := &config.Config{SecretKey: "test-secret", AccessTokenValidityDuration: time.Hour}

	users := NewUserService(store, cfg)
	users.bcryptCost = bcrypt.MinCost
	users.now = clk.Now

	tasks := NewTaskService(store)
	tasks.now = clk.Now

	transcripts := NewTranscriptService(store)
	transcripts.now = clk.Now

	return &fixture{store: store, clock: clk, users: users, tasks: tasks, transcripts: transcripts}
}

func (f *fixture) register(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), name, "password1")
	require.NoError(t, err)
	return u
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
