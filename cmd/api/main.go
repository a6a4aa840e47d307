package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/credit-market/internal/api/http"
	"github.com/spec-kit/credit-market/internal/api/http/handlers"
	"github.com/spec-kit/credit-market/internal/auth"
	"github.com/spec-kit/credit-market/internal/config"
	"github.com/spec-kit/credit-market/internal/events"
	"github.com/spec-kit/credit-market/internal/observability"
	"github.com/spec-kit/credit-market/internal/persistence"
	"github.com/spec-kit/credit-market/internal/repository"
	"github.com/spec-kit/credit-market/internal/service"
	"github.com/spec-kit/credit-market/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	graph, err := persistence.NewGraph(ctx, cfg.Graph, logger)
	if err != nil {
		logger.Fatal("failed to connect neo4j", zap.Error(err))
	}
	defer graph.Close(ctx)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	listingRepo := repository.NewListingRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	dmRepo := repository.NewDirectMessageRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		GitHub:     auth.NewGitHubClient(cfg.Auth.GitHubClientID, cfg.Auth.GitHubClientSecret),
		StateStore: auth.NewStateStore(redis.Client, cfg.Auth.OAuthStateTTL()),
	})
	listingService := service.NewListingService(service.ListingDependencies{
		ListingRepo: listingRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
	})
	chatService := service.NewChatService(service.ChatDependencies{
		ListingRepo: listingRepo,
		MessageRepo: messageRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
	})
	dmService := service.NewDMService(service.DMDependencies{
		DirectMessageRepo: dmRepo,
		UserRepo:          userRepo,
		Dispatcher:        dispatcher,
	})
	trustService := service.NewTrustService(graph, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartEventWorkers(dispatcher, notificationService, trustService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, graph),
		Auth:           handlers.NewAuthHandler(authService, cfg),
		Listings:       handlers.NewListingsHandler(listingService),
		Chat:           handlers.NewChatHandler(chatService),
		DM:             handlers.NewDMHandler(dmService),
		Users:          handlers.NewUsersHandler(userRepo, listingService, trustService, cfg.Admin.Username),
		Admin:          handlers.NewAdminHandler(listingService, metrics, cfg.Admin.Username),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
