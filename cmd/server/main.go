package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/eventcart/backend/api/handler"
	"github.com/eventcart/backend/internal/config"
	"github.com/eventcart/backend/internal/infrastructure/buffer"
	"github.com/eventcart/backend/internal/infrastructure/monitor"
	pgInfra "github.com/eventcart/backend/internal/infrastructure/postgres"
	redisInfra "github.com/eventcart/backend/internal/infrastructure/redis"
	"github.com/eventcart/backend/internal/middleware"
	"github.com/eventcart/backend/internal/router"
	"github.com/eventcart/backend/internal/services"
	"github.com/eventcart/backend/internal/services/lifecycle"
	"github.com/eventcart/backend/pkg/httpcontext"
	"github.com/eventcart/backend/pkg/logger"
	"github.com/eventcart/backend/repository/postgres"
	redisRepo "github.com/eventcart/backend/repository/redis"
	cartUC "github.com/eventcart/backend/usecase/cart"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	pendingStore, err := buffer.Open(cfg.Buffer.Path, "pending_views")
	if err != nil {
		zapLogger.Fatal("failed to open pending view store", zap.Error(err))
	}
	manager.Register("pending_views", func(ctx context.Context) error {
		return pendingStore.Close()
	})

	mon := monitor.New(pool, redisClient, pendingStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	eventStore := postgres.NewEventStore(pool)
	cartViews := redisRepo.NewCartViewRepository(redisClient, cfg.View.TTL)

	viewRefresher := services.NewViewRefresher(
		pendingStore,
		mon,
		eventStore,
		cartViews,
		zapLogger,
		services.RefresherConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  50,
			MaxRetries: cfg.Buffer.MaxRetry,
		},
	)
	viewRefresher.Start()
	manager.Register("view_refresher", func(ctx context.Context) error {
		viewRefresher.Stop(ctx)
		return nil
	})

	viewBridge := services.NewViewBridge(viewRefresher)

	cartUseCase := cartUC.New(eventStore, cartViews, viewBridge, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Cart:   apiHandler.NewCartHandler(cartUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
