package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apihttp "github.com/opendesk/helpdesk-service/internal/api/http"
	"github.com/opendesk/helpdesk-service/internal/api/http/handlers"
	"github.com/opendesk/helpdesk-service/internal/auth"
	"github.com/opendesk/helpdesk-service/internal/config"
	"github.com/opendesk/helpdesk-service/internal/events"
	"github.com/opendesk/helpdesk-service/internal/observability"
	"github.com/opendesk/helpdesk-service/internal/persistence"
	"github.com/opendesk/helpdesk-service/internal/repository"
	"github.com/opendesk/helpdesk-service/internal/service"
	"github.com/opendesk/helpdesk-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.PoolHandle(), logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	redisStore := persistence.NewRedis(cfg.Redis, logger)
	defer redisStore.Close()

	pool := postgres.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	availabilityRepo := repository.NewAvailabilityRepository(pool)
	serviceRepo := repository.NewServiceRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	var catalogCache service.CatalogCache
	if cache := persistence.NewCatalogCache(redisStore, cfg.Redis.CatalogCacheTTL(), logger); cache != nil {
		catalogCache = cache
	}

	authService := service.NewAuthService(cfg.Auth, userRepo)
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:         userRepo,
		AvailabilityRepo: availabilityRepo,
		Dispatcher:       dispatcher,
		BcryptCost:       cfg.Auth.BcryptCost,
		PublicBaseURL:    cfg.App.PublicBaseURL,
	})
	catalogService := service.NewCatalogService(serviceRepo, catalogCache, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:       ticketRepo,
		UserRepo:         userRepo,
		AvailabilityRepo: availabilityRepo,
		ServiceRepo:      serviceRepo,
		Dispatcher:       dispatcher,
		Now:              time.Now,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)

	reminderWorker := worker.NewReminderWorker(ticketRepo, logger, cfg.Reminder)
	if err := reminderWorker.Start(); err != nil {
		logger.Fatal("reminder worker failed to start", zap.Error(err))
	}
	defer reminderWorker.Stop()

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.RequestTimeout(),
		WriteTimeout: cfg.App.RequestTimeout(),
		ErrorHandler: apihttp.ErrorHandler(logger, metrics),
	})
	apihttp.RegisterMiddlewares(app, logger, metrics)

	authMiddleware := auth.NewMiddleware(authService.TokenManager())
	apihttp.RegisterRoutes(app, apihttp.Handlers{
		Users:    handlers.NewUsersHandler(authService, userService),
		Services: handlers.NewServicesHandler(catalogService),
		Tickets:  handlers.NewTicketsHandler(ticketService),
		Health:   handlers.NewHealthHandler(postgres, redisStore, cfg.App.Version),
	}, authMiddleware)

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
