package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/lane-ops/internal/config"
	"github.com/iliyamo/lane-ops/internal/database"
	"github.com/iliyamo/lane-ops/internal/gate"
	"github.com/iliyamo/lane-ops/internal/handler"
	"github.com/iliyamo/lane-ops/internal/logging"
	"github.com/iliyamo/lane-ops/internal/ops"
	"github.com/iliyamo/lane-ops/internal/queue"
	"github.com/iliyamo/lane-ops/internal/repository"
	"github.com/iliyamo/lane-ops/internal/router"
	"github.com/iliyamo/lane-ops/internal/service"
)

func main() {
	os.Exit(serve())
}

// serve runs the server and returns the process exit code.  It returns
// rather than exiting so the logger is flushed on every path.
func serve() int {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Printf("logger: %v", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient(cfg.Redis)
	var wip gate.Gate = gate.NewLocalGate()
	if rdb != nil {
		defer rdb.Close()
		wip = gate.NewRedisGate(rdb, cfg.Ops.GateKey, cfg.Ops.GateTTL, logger.Named("gate"))
	} else {
		logger.Warn("redis unavailable; gate, cache and rate limits are process-local")
	}

	publisher := service.NewQueuePublisher(cfg.AMQPURL, logger.Named("publisher"))
	defer publisher.Close()

	console := ops.NewConsole(repository.NewStore(db),
		ops.WithGate(wip),
		ops.WithPublisher(publisher),
		ops.WithLogger(logger.Named("ops")),
		ops.WithLocation(cfg.Ops.Location()),
	)
	if _, err := console.Load(ctx, console.Today()); err != nil {
		return err
	}

	audit, closeAudit, err := logging.NewFile(cfg.AuditLogPath)
	if err != nil {
		return err
	}
	defer closeAudit()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ops.NewPoller(console, cfg.Ops.PollInterval, logger.Named("poller")).Run(ctx)
	}()
	go func() {
		defer wg.Done()
		queue.NewConsumer(cfg.AMQPURL, audit, logger.Named("consumer")).Run(ctx)
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, handler.NewOpsHandler(console, logger.Named("http")), router.Deps{
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		Cache:     cfg.Cache,
		RateLimit: cfg.RateLimit,
		Logger:    logger.Named("http"),
		Checks:    checks(db, rdb),
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		stop()
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := e.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("http shutdown", zap.Error(serr))
	}
	wg.Wait()
	logger.Info("stopped")
	return err
}

func checks(db *sql.DB, rdb *redis.Client) map[string]handler.Check {
	m := map[string]handler.Check{"db": db.PingContext}
	if rdb != nil {
		m["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return m
}
