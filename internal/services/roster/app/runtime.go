// Package app assembles the roster service runtime: storage, domain service,
// HTTP API, and the announcement dispatcher.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/api/httpapi"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/domain"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/domain/authz"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/notify"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/storage/sqlite"
)

// RuntimeConfig controls roster startup, dependencies, and dispatcher pacing.
type RuntimeConfig struct {
	Port                int
	DBPath              string
	JWTSecret           string
	WebhookURL          string
	Locale              string
	AuthorizedRoles     []string
	AutoApproveSwaps    bool
	NotifyPollInterval  time.Duration
	NotifyBatchSize     int
	NotifyMaxAttempts   int
	NotifyRetryBackoff  time.Duration
	NotifyRetryMaxDelay time.Duration
}

const (
	defaultRosterPort = 8090
	defaultRosterDB   = "data/roster.db"

	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Run starts roster runtime dependencies, serves the HTTP API, and drains the
// announcement outbox until the context is cancelled.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultRosterPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultRosterDB
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create roster storage dir: %w", err)
		}
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open roster sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("close roster sqlite store", zap.Error(closeErr))
		}
	}()

	gate := authz.NewGate(cfg.AuthorizedRoles)
	svc := domain.NewService(store, gate, cfg.AutoApproveSwaps, nil, nil)
	tokens, err := httpapi.NewTokenManager(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("build token manager: %w", err)
	}

	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	defer stopDispatch()

	if strings.TrimSpace(cfg.WebhookURL) != "" {
		sink, err := notify.NewWebhookSink(notify.WebhookConfig{URL: cfg.WebhookURL})
		if err != nil {
			return fmt.Errorf("build webhook sink: %w", err)
		}
		dispatcher := notify.NewDispatcher(store, sink, announcementPrinter(cfg.Locale), notify.Config{
			PollInterval:  cfg.NotifyPollInterval,
			BatchSize:     cfg.NotifyBatchSize,
			MaxAttempts:   cfg.NotifyMaxAttempts,
			RetryBackoff:  cfg.NotifyRetryBackoff,
			RetryMaxDelay: cfg.NotifyRetryMaxDelay,
		}, logger)
		dispatchDone := make(chan error, 1)
		go func() {
			dispatchDone <- dispatcher.Run(dispatchCtx)
		}()
		defer func() {
			stopDispatch()
			if dispatchErr := <-dispatchDone; dispatchErr != nil {
				logger.Error("announcement dispatcher stopped", zap.Error(dispatchErr))
			}
		}()
	} else {
		logger.Info("announcement webhook disabled, outbox messages will accumulate")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on roster port %d: %w", cfg.Port, err)
	}

	httpServer := &http.Server{
		Handler:      httpapi.NewRouter(svc, tokens, logger),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	logger.Info("roster server listening", zap.String("addr", listener.Addr().String()))

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve roster api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown roster api: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve roster api: %w", err)
	}
	return nil
}

// announcementPrinter picks the message catalog for announcement copy. Unknown
// or blank locales fall back to English.
func announcementPrinter(locale string) *message.Printer {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}
