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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scythe504/gyeongdo-backend/internal/config"
	"github.com/scythe504/gyeongdo-backend/internal/database"
	"github.com/scythe504/gyeongdo-backend/internal/events"
	"github.com/scythe504/gyeongdo-backend/internal/game"
	"github.com/scythe504/gyeongdo-backend/internal/logger"
	"github.com/scythe504/gyeongdo-backend/internal/metrics"
	"github.com/scythe504/gyeongdo-backend/internal/presence"
	"github.com/scythe504/gyeongdo-backend/internal/server"
	"github.com/scythe504/gyeongdo-backend/internal/websocket"
)

func gracefulShutdown(apiServer *http.Server, hub *websocket.Hub, rooms *game.Registry, log *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Info("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	hub.Close()
	rooms.Shutdown()

	log.Info("server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gyeongdo: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Development(), cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	var (
		sinks  []game.LifecycleSink
		db     database.Service
		online server.OnlineLister
		track  game.PresenceTracker
	)

	if cfg.DatabaseEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err = database.New(ctx, database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			Schema:   cfg.Database.Schema,
		}, log.Named("database"))
		cancel()
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		sinks = append(sinks, db)
		log.Info("results archive enabled", zap.String("host", cfg.Database.Host))
	}

	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		store := presence.NewStore(rdb, cfg.Redis.Prefix, cfg.PresenceTTL)

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := store.Ping(ctx)
		cancel()
		if err != nil {
			log.Warn("redis unreachable, presence disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			online, track = store, store
			log.Info("presence enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	if cfg.KafkaEnabled() {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		sinks = append(sinks, producer)
		log.Info("lifecycle publishing enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	instruments := metrics.New()

	conns := game.NewConnectionRegistry()
	hub := websocket.NewHub(websocket.Config{
		PingInterval:   cfg.PingInterval,
		WriteDeadline:  cfg.WriteDeadline,
		MaxMessageSize: cfg.WS.MaxMessageSizeBytes,
		SendBuffer:     cfg.WS.SendBufferSize,
		RatePerSecond:  cfg.WS.RatePerSecond,
		Connections:    instruments.Connections,
		Dropped:        instruments.DroppedClients,
	}, conns, log.Named("ws"))

	rooms := game.NewRegistry(game.RegistryConfig{
		Room:   cfg.Room(),
		Sender: hub,
		Sinks:  sinks,
		Logger: log.Named("game"),
	})
	hub.Attach(game.NewRouter(rooms, conns, track, log.Named("router")))
	instruments.TrackRooms(rooms.Len)

	apiServer := server.New(server.Options{
		Port:     cfg.App.Port,
		Rooms:    rooms,
		WS:       http.HandlerFunc(hub.ServeWS),
		Metrics:  instruments.Handler(),
		DB:       db,
		Presence: online,
		Logger:   log.Named("http"),
	}).HTTPServer()

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(apiServer, hub, rooms, log, done)

	log.Info("listening", zap.String("addr", apiServer.Addr), zap.String("env", cfg.App.Env))
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("graceful shutdown complete")
	return nil
}
