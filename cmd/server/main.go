package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rafi653/vibe-project/internal/bus"
	"github.com/Rafi653/vibe-project/internal/config"
	"github.com/Rafi653/vibe-project/internal/database"
	"github.com/Rafi653/vibe-project/internal/jobs"
	"github.com/Rafi653/vibe-project/internal/logger"
	"github.com/Rafi653/vibe-project/internal/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		log.Error("DB_URL is required")
		return 1
	}
	db, err := database.Connect(ctx, cfg.DBUrl)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return 1
	}
	defer db.Close()

	chatBus, err := newBus(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect chat bus", zap.String("bus", cfg.ChatBus), zap.Error(err))
		return 1
	}
	defer func() {
		if err := chatBus.Close(); err != nil {
			log.Warn("Failed to close chat bus", zap.Error(err))
		}
	}()

	// 3. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:     "vibe-project",
		ProxyHeader: proxyHeader(cfg.TrustProxy),
	})

	app.Use(requestid.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSAllowOrigins}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(recover.New())

	realtime, err := routes.RegisterRoutes(app, cfg, db, chatBus, log)
	if err != nil {
		log.Error("Failed to register routes", zap.Error(err))
		return 1
	}

	scheduler, err := jobs.NewScheduler(log)
	if err != nil {
		log.Error("Failed to create scheduler", zap.Error(err))
		return 1
	}
	reconciler := jobs.NewPresenceReconciler(realtime.Presence, realtime.Hub, cfg.PresenceStaleAfter, log)
	if err := reconciler.Register(ctx, scheduler, cfg.PresenceSyncInterval); err != nil {
		log.Error("Failed to schedule presence reconciler", zap.Error(err))
		return 1
	}

	// 4. Start Server
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := app.Listen(":" + cfg.Port); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := realtime.Hub.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("chat bus subscription failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		scheduler.Start()
		<-gCtx.Done()
		return scheduler.Shutdown()
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("Shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Server stopped with error", zap.Error(err))
		return 1
	}
	log.Info("Server stopped")
	return 0
}

func newBus(ctx context.Context, cfg *config.Config, log *zap.Logger) (bus.Bus, error) {
	switch cfg.ChatBus {
	case config.BusRedis:
		return bus.NewRedis(ctx, cfg.RedisURL, log)
	case config.BusNATS:
		return bus.NewNATS(cfg.NATSURL, log)
	default:
		return bus.NewLocal(), nil
	}
}

func proxyHeader(trust bool) string {
	if trust {
		return fiber.HeaderXForwardedFor
	}
	return ""
}
