package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"betting-backend/internal/broker/kafka"
	"betting-backend/internal/broker/rabbitmq"
	"betting-backend/internal/config"
	"betting-backend/internal/handlers"
	"betting-backend/internal/logger"
	"betting-backend/internal/metrics"
	"betting-backend/internal/services"
	"betting-backend/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(execute())
}

// execute returns the process exit code once every deferred cleanup has run.
func execute() int {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Printf("Failed to build logger: %v", err)
		return 1
	}
	defer zl.Sync() //nolint:errcheck

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Error("server stopped", zap.Error(err))
		return 1
	}

	return 0
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	var redisService *services.RedisService
	if cfg.Redis.Addr != "" {
		rs, err := services.NewRedisService(ctx, cfg.Redis, zl)
		if err != nil {
			return err
		}
		defer rs.Close()
		redisService = rs
	}

	repo, err := openStore(ctx, cfg, redisService, zl)
	if err != nil {
		return err
	}
	defer repo.Close()

	hub := handlers.NewHub(zl)
	go hub.Run(ctx)

	var sinks []services.Broadcaster
	if redisService != nil {
		// Every process relays the shared channel to its own viewers.
		sinks = append(sinks, redisService)
		go redisService.Relay(ctx, hub)
	} else {
		sinks = append(sinks, hub)
	}

	if cfg.RabbitMQ.URL != "" {
		producer, err := rabbitmq.NewProducer(cfg.RabbitMQ, zl)
		if err != nil {
			zl.Warn("rabbitmq unavailable, win events will not be exported", zap.Error(err))
		} else {
			defer producer.Close()
			sinks = append(sinks, producer)
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(ctx, cfg.Kafka)
		if err != nil {
			zl.Warn("kafka unavailable, win events will not be exported", zap.Error(err))
		} else {
			defer producer.Close()
			sinks = append(sinks, producer)
		}
	}

	bus := services.NewBus(cfg.Notify.QueueSize, zl, sinks...)
	go bus.Run(ctx)

	var rng services.RandomSource = services.NewCryptoSource()
	if cfg.RNGSeed != 0 {
		zl.Warn("using seeded random source", zap.Uint64("seed", cfg.RNGSeed))
		rng = services.NewSeededSource(cfg.RNGSeed)
	}

	tokens := services.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)

	routerCfg := handlers.RouterConfig{
		Accounts: services.NewAccountService(repo, tokens, services.AccountConfig{
			StartingBalance: cfg.StartingBalance,
			AdminEmails:     cfg.AdminEmails,
		}, zl),
		Engine:        services.NewGameEngine(repo, rng, bus, zl, cfg.MaxBet),
		Admin:         services.NewAdminService(repo, zl),
		Tokens:        tokens,
		Hub:           hub,
		BetsPerMinute: cfg.RateLimit.BetsPerMinute,
		CORSOrigin:    cfg.CORSOrigin,
		Logger:        zl,
	}
	if redisService != nil {
		routerCfg.Limiter = redisService
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.Store.Driver),
			zap.Int("sinks", len(sinks)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, redisService *services.RedisService, zl *zap.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if cfg.Database.AutoMigrate {
			if err := store.Migrate(ctx, cfg.Database.DSN()); err != nil {
				return nil, err
			}
			zl.Info("database migrated")
		}
		return store.NewPostgres(ctx, cfg.Database)

	case config.DriverRedis:
		return store.NewRedis(redisService.Client()), nil

	case config.DriverMemory:
		zl.Warn("using in-memory store, balances are lost on restart")
		return store.NewMemory(), nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
