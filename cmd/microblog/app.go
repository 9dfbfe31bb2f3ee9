package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/microblog/internal/db"
	"github.com/nkiryanov/microblog/internal/handlers"
	"github.com/nkiryanov/microblog/internal/handlers/render"
	"github.com/nkiryanov/microblog/internal/logger"
	"github.com/nkiryanov/microblog/internal/reporting"
	"github.com/nkiryanov/microblog/internal/repository"
	"github.com/nkiryanov/microblog/internal/repository/postgres"
	"github.com/nkiryanov/microblog/internal/repository/sqlite"
	"github.com/nkiryanov/microblog/internal/service/auth"
	"github.com/nkiryanov/microblog/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/microblog/internal/service/post"
	"github.com/nkiryanov/microblog/internal/service/user"
	"github.com/nkiryanov/microblog/internal/session"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (_ *ServerApp, err error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, logger: logger}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	// Connect to the database and prepare schema
	storage, closeStorage, err := openStorage(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, closeStorage)

	reporter, flushReporter, err := reporting.New(reporting.Config{
		Mail: reporting.MailConfig{
			Server:   c.MailServer,
			Port:     c.MailPort,
			Username: c.MailUsername,
			Password: c.MailPassword,
			Admins:   c.Admins,
		},
		SentryDSN: c.SentryDSN,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("error while creating error reporter. Err: %w", err)
	}
	app.closers = append(app.closers, flushReporter)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{}, storage.RememberToken())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	authService, err := auth.NewService(auth.Config{}, tokenManager, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService := user.NewService(storage.User())
	postService := post.NewService(post.Config{PerPage: c.PostsPerPage}, storage.Post())

	sessions, err := session.NewManager(session.Config{SecretKey: c.SecretKey})
	if err != nil {
		return nil, fmt.Errorf("error while creating session manager. Err: %w", err)
	}

	pages, err := render.NewRenderer(logger, reporter)
	if err != nil {
		return nil, fmt.Errorf("error while loading templates. Err: %w", err)
	}

	app.Handler = handlers.NewRouter(
		handlers.Services{
			Auth:    authService,
			User:    userService,
			Post:    postService,
			Storage: storage,
		},
		sessions,
		pages,
		logger,
	)

	return app, nil
}

// Pick storage by dsn scheme
func openStorage(ctx context.Context, dsn string) (repository.Storage, func(), error) {
	switch {
	case db.IsPostgresDSN(dsn):
		pool, err := db.ConnectAndMigrate(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStorage(pool), pool.Close, nil
	case sqlite.IsSQLiteDSN(dsn):
		storage, closeFn, err := sqlite.Open(sqlite.PathFromDSN(dsn))
		if err != nil {
			return nil, nil, err
		}
		return storage, func() { _ = closeFn() }, nil
	default:
		return nil, nil, errors.New("unsupported database dsn, expected postgres:// or sqlite://")
	}
}

// Release resources in reverse order
func (s *ServerApp) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
