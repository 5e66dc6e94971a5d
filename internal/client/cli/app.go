// Package cli is the interactive gophtodo terminal client: log in, chat
// with the assistant and look at tasks.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/client/api"
	"github.com/dmitrijs2005/gophtodo/internal/client/config"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

// Backend is the part of the API client the commands use.
type Backend interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.Session, error)
	Chat(ctx context.Context, message string) (*api.ChatReply, error)
	History(ctx context.Context) ([]*models.Message, error)
	ListTasks(ctx context.Context, status, targetDate string) ([]*models.Task, error)
	Counts(ctx context.Context, targetDate string) (*models.TaskStatusCounts, error)
	MarkBacklog(ctx context.Context) (string, error)
	SetToken(token string)
}

type App struct {
	config   *config.Config
	backend  Backend
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	return &App{
		config:  c,
		backend: api.NewClient(c.ServerURL, c.RequestTimeout),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to gophtodo (type 'help' for commands)")

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := a.backend.Ping(pingCtx); err != nil {
		fmt.Fprintf(a.out, "warning: %s is not reachable: %v\n", a.config.ServerURL, err)
	}
	cancel()

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}
