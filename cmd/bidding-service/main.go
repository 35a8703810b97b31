package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-bidding/internal/api/handlers"
	"auction-bidding/internal/config"
	"auction-bidding/internal/domain"
	"auction-bidding/internal/infrastructure/kafka"
	"auction-bidding/internal/infrastructure/redis"
	"auction-bidding/internal/infrastructure/storage"
	"auction-bidding/internal/services"
	"auction-bidding/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	log.Info("Starting bidding service", "config", cfg.GetConfigString())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize stores
	stores, err := storage.Open(pingCtx, cfg, log)
	if err != nil {
		log.Error("Failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	// Ledger sinks: the durable store, optionally mirrored to Kafka
	sinks := []domain.BidAttemptSink{stores.Bids}
	var mirror *kafka.LedgerMirror
	if cfg.Kafka.Enabled {
		mirror = kafka.NewLedgerMirror(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		sinks = append(sinks, mirror)
		log.Info("Mirroring bid ledger to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	ledger := services.NewLedgerWriter(cfg.Ledger.Workers, cfg.Ledger.QueueSize, cfg.Ledger.WriteTimeout, log, sinks...)
	statsReporter := services.NewLedgerStatsReporter(ledger, cfg.Ledger.StatsSchedule, log)

	// Initialize Redis based components
	bidCache := redis.NewRedisBidCache(rdb, cfg.Bidding.CacheTTL)
	eventPublisher := redis.NewRedisEventPublisher(rdb)

	windowPolicy, err := services.ParseWindowPolicy(cfg.Bidding.WindowPolicy)
	if err != nil {
		log.Error("Invalid window policy", "error", err)
		os.Exit(1)
	}

	// Initialize services
	bidService := services.NewBidService(stores.Auctions, bidCache, ledger, log,
		services.WithWindowPolicy(windowPolicy),
		services.WithWriteTimeout(cfg.Bidding.WriteTimeout),
		services.WithEventPublisher(eventPublisher),
	)
	auctionService := services.NewAuctionService(stores.Auctions, stores.Bids,
		services.NewIncrementSchedule(cfg.Increments.Tiers), log)
	currentBidService := services.NewCurrentBidService(stores.Auctions, bidCache, log)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			handlers.HeaderBidderID,
		},
		MaxAge: 86400,
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			req := c.Request()
			log.Debug("Request handled",
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"latency", time.Since(start).String())
			return err
		}
	})

	handlers.RegisterRoutes(e,
		handlers.NewAuctionHandler(auctionService, currentBidService, log),
		handlers.NewBidHandler(bidService, log),
	)

	if err := statsReporter.Start(ctx); err != nil {
		log.Error("Failed to start ledger stats reporter", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Info("Starting HTTP server", "address", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down bidding service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", "error", err)
		}
		if err := statsReporter.Stop(); err != nil {
			log.Error("Failed to stop ledger stats reporter", "error", err)
		}
		// Drain only after the server stopped producing attempts.
		if err := ledger.Close(shutdownCtx); err != nil {
			log.Error("Ledger did not drain before shutdown", "pending", ledger.Stats().Pending, "error", err)
		}
		if mirror != nil {
			if err := mirror.Close(); err != nil {
				log.Error("Failed to close Kafka writer", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Bidding service exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Bidding service stopped")
}
