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

	"auction-bidding/internal/api/middleware"
	"auction-bidding/internal/config"
	"auction-bidding/internal/infrastructure/redis"
	"auction-bidding/internal/infrastructure/storage"
	"auction-bidding/internal/infrastructure/websocket"
	"auction-bidding/internal/services"
	"auction-bidding/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	log.Info("Starting spectator service", "config", cfg.GetConfigString())

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

	if err := storage.RequireShared(cfg.Storage.Driver); err != nil {
		log.Error("Spectator service needs the bidding service's store", "error", err)
		os.Exit(1)
	}

	stores, err := storage.Open(pingCtx, cfg, log)
	if err != nil {
		log.Error("Failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	bidCache := redis.NewRedisBidCache(rdb, cfg.Bidding.CacheTTL)
	eventSubscriber := redis.NewRedisEventSubscriber(rdb, log)
	currentBidService := services.NewCurrentBidService(stores.Auctions, bidCache, log)

	connManager := websocket.NewConnectionManager(log)
	eventListener := services.NewEventListener(websocket.NewWebSocketNotifier(connManager), log)
	wsHandler := websocket.NewWebSocketHandler(currentBidService, connManager, log)

	router := mux.NewRouter()
	router.Use(middleware.CORS)
	router.HandleFunc("/ws/auctions/{auctionID}", wsHandler.HandleConnection)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Spectator.Host, cfg.Spectator.Port),
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := eventListener.Start(gctx, eventSubscriber)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("event listener: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info("Starting spectator server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down spectator service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", "error", err)
		}
		return connManager.CloseAll()
	})

	if err := g.Wait(); err != nil {
		log.Error("Spectator service exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Spectator service stopped")
}
