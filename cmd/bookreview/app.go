package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vmaleev/bookreview/internal/db"
	"github.com/vmaleev/bookreview/internal/handlers"
	"github.com/vmaleev/bookreview/internal/logger"
	"github.com/vmaleev/bookreview/internal/mail"
	"github.com/vmaleev/bookreview/internal/objstore"
	"github.com/vmaleev/bookreview/internal/repository/postgres"
	"github.com/vmaleev/bookreview/internal/service/auth"
	"github.com/vmaleev/bookreview/internal/service/book"
	"github.com/vmaleev/bookreview/internal/service/review"
	"github.com/vmaleev/bookreview/internal/service/suggestion"
	"github.com/vmaleev/bookreview/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Mail notifications are optional: no mail host means no emails
	var authNotifier auth.Notifier
	var userNotifier user.Notifier
	if c.MailHost != "" {
		notifier := mail.NewNotifier(
			mail.NewSMTPSender(mail.Config{
				Host:     c.MailHost,
				Port:     c.MailPort,
				Username: c.MailUsername,
				Password: c.MailPassword,
				From:     c.MailFrom,
			}),
			c.MailAdminAddr,
			logger,
		)
		authNotifier = notifier
		userNotifier = notifier
	}

	// Cover uploads are optional as well
	var covers book.CoverStore
	if c.S3Endpoint != "" {
		covers, err = objstore.NewS3Store(ctx, objstore.Config{
			Endpoint:      c.S3Endpoint,
			Region:        c.S3Region,
			Bucket:        c.S3Bucket,
			AccessKey:     c.S3AccessKey,
			SecretKey:     c.S3SecretKey,
			PublicBaseURL: c.S3PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("error while creating object storage client. Err: %w", err)
		}
	}

	// Initialize services
	authService, err := auth.NewService(auth.Config{
		SecretKey:  c.SecretKey,
		AccessTTL:  time.Duration(c.AccessTokenMinutes) * time.Minute,
		RefreshTTL: time.Duration(c.RefreshTokenDays) * 24 * time.Hour,
	}, storage, authNotifier, logger)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService := user.NewService(auth.DefaultHasher, storage, userNotifier)
	bookService := book.NewService(storage, covers)
	reviewService := review.NewService(storage)
	suggestionService := suggestion.NewService(storage)

	mux := handlers.NewRouter(
		authService.Codec(),
		authService,
		userService,
		bookService,
		reviewService,
		suggestionService,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
