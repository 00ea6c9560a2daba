package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/churchbook/internal/config"
	"github.com/joshua-takyi/churchbook/internal/connect"
	"github.com/joshua-takyi/churchbook/internal/container"
	"github.com/joshua-takyi/churchbook/internal/helpers"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/notify"
	"github.com/joshua-takyi/churchbook/internal/routes"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting church booking API", "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clients := container.Clients{}

	clients.Supabase, err = connect.InitSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey)
	if err != nil {
		logger.Error("Failed to connect to Supabase", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Supabase successfully")

	if cfg.MongoDBURI != "" {
		clients.MongoDB, err = connect.MongoDBConnect(ctx, cfg.MongoDBURI, cfg.MongoDBPassword)
		if err != nil {
			logger.Warn("MongoDB unavailable, notification attempts will not be recorded", "error", err)
		} else {
			logger.Info("Connected to MongoDB successfully")
			repo := models.MongodbNewRepo(clients.MongoDB, cfg.MongoDBDatabase)
			if err := repo.EnsureIndexes(ctx); err != nil {
				logger.Warn("Failed to create notification log indexes", "error", err)
			}
		}
	}

	if cfg.RedisAddr != "" {
		clients.Redis = connect.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if clients.Redis == nil {
			logger.Warn("Redis unavailable, rate limiting disabled", "addr", cfg.RedisAddr)
		}
	}

	if cfg.DatabaseURL != "" {
		clients.Postgres, err = connect.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.Warn("Postgres unavailable, approvals use the conditional update path", "error", err)
		}
	}

	if cfg.SupabaseJWKSURL != "" {
		clients.Provider, err = helpers.FetchProviderKeys(ctx, cfg.SupabaseJWKSURL, logger)
		if err != nil {
			logger.Warn("Failed to load provider signing keys, provider tokens disabled", "error", err)
		}
	}

	appContainer, err := container.NewContainer(cfg, logger, clients)
	if err != nil {
		logger.Error("Failed to build application container", "error", err)
		os.Exit(1)
	}

	if appContainer.UsesBroker {
		go notify.Consume(ctx, cfg.RabbitMQURL, appContainer.Worker, logger)
	}

	if cfg.RemindersEnabled {
		scheduler, err := appContainer.ReminderService.StartScheduler(ctx, cfg.ReminderSchedule)
		if err != nil {
			logger.Error("Failed to start reminder scheduler", "error", err)
			os.Exit(1)
		}
		defer func() { <-scheduler.Stop().Done() }()
	}

	router := routes.SetupRoutes(appContainer)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	appContainer.Close(15 * time.Second)

	if err := connect.MongoDBDisconnect(clients.MongoDB); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}
	if clients.Redis != nil {
		_ = clients.Redis.Close()
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}
