package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/conversation-inbox/internal/application"
	"github.com/example/conversation-inbox/internal/broadcast"
	"github.com/example/conversation-inbox/internal/channel"
	"github.com/example/conversation-inbox/internal/config"
	httptransport "github.com/example/conversation-inbox/internal/http"
	"github.com/example/conversation-inbox/internal/persistence/sqlite"
	"github.com/example/conversation-inbox/internal/scheduler"
	"github.com/example/conversation-inbox/internal/session"
	"github.com/example/conversation-inbox/internal/templates"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; the environment itself may carry everything.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	conversationRepo := sqlite.NewConversationRepository(pool)
	reminderRepo := sqlite.NewReminderRepository(pool)
	contactRepo := sqlite.NewContactRepository(pool)
	messageRepo := sqlite.NewMessageRepository(pool)
	statusEventRepo := sqlite.NewStatusEventRepository(pool)
	settingRepo := sqlite.NewSettingRepository(pool)
	sessionRepo := sqlite.NewSessionRepository(pool)

	idGenerator := uuid.NewString
	now := time.Now

	hub := broadcast.NewHub(now, logger)
	registry := channel.NewRegistry(10 * time.Second)
	resolver := templates.NewResolver(conversationRepo, contactRepo)
	settingsCache := application.NewSettingsCache(settingRepo, cfg.SettingsCacheTTL, now)
	sessionStore := session.NewStore(sessionRepo, nil, cfg.SessionTTL, now, logger)

	sweeper := application.NewSweeperService(
		conversationRepo,
		contactRepo,
		messageRepo,
		statusEventRepo,
		settingsCache,
		registry,
		resolver,
		hub,
		idGenerator,
		cfg.AutoCloseMinutes,
		logger,
	)
	reminders := application.NewReminderService(reminderRepo, contactRepo, hub, now, logger)

	driver := scheduler.NewDriver(sweeper, reminders, cfg.SchedulerTick, now, logger)
	go driver.Run(ctx)
	go sessionStore.RunCleanup(ctx, cfg.SessionCleanupInterval)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Reminders:     httptransport.NewReminderHandler(reminders, now, logger),
		Conversations: httptransport.NewConversationHandler(conversationRepo, logger),
		Events:        hub,
		Sessions:      sessionStore,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("inbox API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
