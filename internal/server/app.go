// Package server wires storage, services, the chat agent and the HTTP
// surfaces together and runs them until the process is signalled.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/agent"
	"github.com/dmitrijs2005/gophtodo/internal/server/config"
	"github.com/dmitrijs2005/gophtodo/internal/server/mcpserver"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophtodo/internal/server/rest"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
	"github.com/dmitrijs2005/gophtodo/internal/server/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

type App struct {
	config     *config.Config
	logger     logging.Logger
	repository repomanager.RepositoryManager
	server     *rest.Server
}

var openPostgres = func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
	return repomanager.OpenPostgres(ctx, dsn)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, c, logging.NewJSONLogger(os.Stdout, level))
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	var rm repomanager.RepositoryManager
	if c.UseMemoryStore() {
		logger.Warn(ctx, "using in-memory store, data is lost on exit")
		rm = memory.NewStore()
	} else {
		pg, err := openPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := pg.RunMigrations(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}
		rm = pg
	}

	us := services.NewUserService(rm, c)
	ts := services.NewTaskService(rm)
	tr := services.NewTranscriptService(rm)

	gateway, err := tools.NewGateway(us, ts, logger)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("tool gateway init error: %w", err)
	}

	model, err := agent.NewModel(c.OpenAIAPIKey, c.OpenAIModel, c.OpenAIBaseURL)
	if errors.Is(err, agent.ErrNoAPIKey) {
		logger.Warn(ctx, "no OpenAI API key configured, chat replies will fail")
	} else if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("model init error: %w", err)
	}

	loop := agent.NewLoop(model, c.AgentMaxIterations, logger)
	orchestrator := agent.NewOrchestrator(gateway, tr, loop, c.AgentHistoryLimit, logger)

	srv := rest.NewServer(c.EndpointAddrHTTP, logger, rest.Deps{
		Users:        us,
		Tasks:        ts,
		Transcripts:  tr,
		Orchestrator: orchestrator,
		Archive:      services.NewTranscriptArchive(tr, c),
		MCP:          mcpserver.New(gateway, Version, logger).Handler(),
		HistoryLimit: c.HistoryLimit,
	})

	return &App{config: c, logger: logger, repository: rm, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repository.Close(); err != nil {
		app.logger.Error(ctx, "error closing storage", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
