package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/fjod/bookstore/internal/cache"
	"github.com/fjod/bookstore/internal/config"
	"github.com/fjod/bookstore/internal/health"
	h "github.com/fjod/bookstore/internal/http"
	"github.com/fjod/bookstore/internal/metrics"
	"github.com/fjod/bookstore/internal/publisher"
	"github.com/fjod/bookstore/internal/repository"
	"github.com/fjod/bookstore/internal/service"
	"github.com/fjod/bookstore/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("driver", cfg.DB.Driver).Msg("bookstore starting")

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	m := metrics.New()
	var wg sync.WaitGroup

	// Database setup
	creds := &repository.Credentials{
		Driver:            cfg.DB.Driver,
		Path:              cfg.DB.Path,
		Host:              cfg.DB.Host,
		Port:              cfg.DB.Port,
		User:              cfg.DB.User,
		Password:          cfg.DB.Password,
		DBName:            cfg.DB.Name,
		MigrationsDirPath: cfg.DB.MigrationsPath,
		QueryTimeout:      cfg.DB.QueryTimeout,
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database migrations completed")

	// Redis setup
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, continuing without a warm cache")
	}
	pingCancel()
	redisCache := cache.NewRedisCache(redisClient)

	// Services
	catalogService := service.NewCatalogService(repo, redisCache, log, m)
	cartService := service.NewCartService(repo, catalogService, log, m)
	authService := service.NewAuthService(repo, redisCache, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log, m)
	checkoutService := service.NewCheckoutService(cartService, authService, repo, log, m)
	orderService := service.NewOrderService(repo, log, m)

	bgCtx, bgCancel := context.WithCancel(context.Background())

	// Outbox poller
	poller := publisher.NewOutboxPoller(repo, cfg.Kafka.Topic, cfg.Kafka.Brokers, log, m)
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(bgCtx)
	}()

	// gRPC health
	checker := health.NewChecker(map[string]health.Pinger{
		"db":    repo,
		"redis": redisCache,
	}, log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		checker.Run(bgCtx)
	}()

	lis, err := net.Listen("tcp", ":"+cfg.GRPC.Port)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.GRPC.Port).Msg("failed to listen")
	}
	grpcServer := checker.NewGRPCServer()
	go func() {
		log.Info().Str("port", cfg.GRPC.Port).Msg("grpc health listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	// HTTP
	router := h.NewRouter(h.Services{
		Catalog:  catalogService,
		Cart:     cartService,
		Checkout: checkoutService,
		Orders:   orderService,
		Auth:     authService,
	}, h.RouterConfig{
		RequestTimeout: cfg.HTTP.RequestTimeout,
		LoginRate:      cfg.Auth.LoginRate,
		LoginBurst:     cfg.Auth.LoginBurst,
		Metrics:        m.Handler(),
		Logger:         log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      otelhttp.NewHandler(router, "bookstore"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTP.Port).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down bookstore...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server forced to shutdown")
	}
	grpcServer.GracefulStop()
	bgCancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Info().Msg("background workers stopped cleanly")
	case <-shutdownCtx.Done():
		log.Warn().Msg("background workers didn't stop in time")
	}

	if err := poller.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close kafka writer")
	}
	log.Info().Msg("bookstore stopped")
}
