package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"food-order-backend/internal/admin"
	"food-order-backend/internal/api"
	"food-order-backend/internal/auth"
	"food-order-backend/internal/cache"
	"food-order-backend/internal/config"
	"food-order-backend/internal/events"
	"food-order-backend/internal/menu"
	"food-order-backend/internal/orders"
	"food-order-backend/internal/resilience"
	"food-order-backend/internal/storage/postgres"
	"food-order-backend/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	slog.Info("Starting food order backend", "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.DatabaseURL(), cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("Connected to PostgreSQL")

	if cfg.AutoMigrate {
		applied, err := db.Migrate(ctx, postgres.Migrations())
		if err != nil {
			return err
		}
		slog.Info("Migrations up to date", "applied", len(applied))
	}

	var redisClient *cache.Client
	err = resilience.Retry(ctx, "redis", 5, time.Second, func(ctx context.Context) error {
		c, err := cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		redisClient = c
		return nil
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()
	slog.Info("Connected to Redis", "addr", cfg.RedisAddr)

	sinks := []events.Sink{events.LogSink{}, telemetry.EventSink{}}
	if cfg.AMQPURL != "" {
		var amqpSink *events.AMQPSink
		err := resilience.Retry(ctx, "rabbitmq", 5, 2*time.Second, func(context.Context) error {
			s, err := events.DialAMQP(cfg.AMQPURL)
			if err != nil {
				return err
			}
			amqpSink = s
			return nil
		})
		if err != nil {
			return err
		}
		defer amqpSink.Close()
		sinks = append(sinks, amqpSink)
		slog.Info("Publishing order events to RabbitMQ", "exchange", events.Exchange)
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := events.NewTelegramSink(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			slog.Warn("Telegram notifications disabled", "error", err)
		} else {
			sinks = append(sinks, tg)
		}
	}
	dispatcher := events.NewDispatcher(sinks...)
	defer dispatcher.Wait()

	menuService := menu.NewService(db, redisClient, cfg.MenuCacheTTL)
	authService := auth.NewService(db, auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL), redisClient)

	handler := api.NewHandler(api.Deps{
		Orders:         orders.NewService(db, dispatcher, cfg.TaxRate),
		Menu:           menuService,
		Auth:           authService,
		Admin:          admin.NewService(db, menuService),
		Limiter:        redisClient,
		OrderRateLimit: cfg.OrderRateLimit,
		Checks: map[string]api.Pinger{
			"postgres": db,
			"redis":    redisClient,
		},
	})

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: handler.Routes(map[string]http.Handler{
			"GET /metrics": promhttp.Handler(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
