package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/churchbook/internal/config"
	"github.com/joshua-takyi/churchbook/internal/handlers"
	"github.com/joshua-takyi/churchbook/internal/helpers"
	"github.com/joshua-takyi/churchbook/internal/middleware"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/notify"
	"github.com/joshua-takyi/churchbook/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Clients are the external connections opened by main. Every field except
// Supabase may be nil, which switches the matching feature off.
type Clients struct {
	Supabase *supabase.Client
	MongoDB  *mongo.Client
	Redis    *redis.Client
	Postgres *gorm.DB
	Provider *helpers.ProviderVerifier
}

// Container holds all application dependencies
type Container struct {
	Logger  *slog.Logger
	Config  *config.Config
	Clients Clients

	Dispatcher    notify.Dispatcher
	Worker        *notify.Worker
	UsesBroker    bool
	Authenticator *middleware.Authenticator

	UserService          *services.UserService
	VenueService         *services.VenuesService
	BookingService       *services.BookingService
	ChangeRequestService *services.ChangeRequestService
	AuditService         *services.AuditService
	CalendarService      *services.CalendarService
	MetricsService       *services.MetricsService
	ReminderService      *services.ReminderService

	HealthChecks map[string]handlers.HealthCheck

	local *notify.LocalQueue
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger, clients Clients) (*Container, error) {
	if clients.Supabase == nil {
		return nil, fmt.Errorf("supabase client is required")
	}
	policy, err := services.ParseConflictPolicy(cfg.ConflictPolicy)
	if err != nil {
		return nil, err
	}

	supa := models.SupabaseNewRepo(clients.Supabase, cfg.SupabaseServiceKey)

	var deliveryLog models.DeliveryLog
	if clients.MongoDB != nil {
		deliveryLog = models.MongodbNewRepo(clients.MongoDB, cfg.MongoDBDatabase)
	}
	var approver services.Approver
	if clients.Postgres != nil {
		approver = models.NewApprovalGuard(clients.Postgres)
	}

	renderer, err := notify.NewRenderer()
	if err != nil {
		return nil, err
	}
	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	worker := notify.NewWorker(supa, renderer, mailer, deliveryLog, logger)
	local := notify.NewLocalQueue(worker, 256, 2, logger)

	c := &Container{
		Logger:     logger,
		Config:     cfg,
		Clients:    clients,
		Dispatcher: local,
		Worker:     worker,
		local:      local,
	}

	if cfg.RabbitMQURL != "" {
		broker, err := notify.NewAMQPQueue(cfg.RabbitMQURL, local, logger)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, delivering notifications in process", "error", err)
		} else {
			c.Dispatcher = broker
			c.UsesBroker = true
		}
	}

	tokens := helpers.NewTokenIssuer(cfg.JWTSecret)
	c.UserService = services.NewUserService(supa, supa, tokens, cfg.TokenTTL, cfg.AdminTokenTTL, logger)
	c.VenueService = services.NewVenuesService(supa, logger)
	c.BookingService = services.NewBookingService(supa, supa, approver, c.Dispatcher, policy, cfg.Timezone, logger)
	if deliveryLog != nil {
		c.BookingService.WithDeliveryLog(deliveryLog)
	}
	c.ChangeRequestService = services.NewChangeRequestService(supa, supa, c.Dispatcher, logger)
	c.AuditService = services.NewAuditService(supa, supa, supa, logger)
	c.CalendarService = services.NewCalendarService(supa, cfg.Timezone)
	c.MetricsService = services.NewMetricsService(supa, supa, deliveryLog, logger)
	c.ReminderService = services.NewReminderService(supa, c.Dispatcher, cfg.Timezone, logger)
	c.Authenticator = middleware.NewAuthenticator(tokens, clients.Provider, c.UserService, logger)

	c.HealthChecks = map[string]handlers.HealthCheck{}
	if clients.Redis != nil {
		c.HealthChecks["redis"] = func(ctx context.Context) error { return clients.Redis.Ping(ctx).Err() }
	}
	if clients.MongoDB != nil {
		c.HealthChecks["mongodb"] = func(ctx context.Context) error { return clients.MongoDB.Ping(ctx, nil) }
	}
	if clients.Postgres != nil {
		c.HealthChecks["postgres"] = func(ctx context.Context) error {
			sqlDB, err := clients.Postgres.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}

	return c, nil
}

// Close drains queued notifications and releases the broker connection.
func (c *Container) Close(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if c.UsesBroker {
			if err := c.Dispatcher.Close(); err != nil {
				c.Logger.Warn("Failed to close notification broker", "error", err)
			}
		}
		_ = c.local.Close()
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		c.Logger.Warn("Timed out draining notification queue")
	}
	if c.Clients.Provider != nil {
		c.Clients.Provider.Close()
	}
}
