package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/citypark/platform/pkg/aggregation"
	"github.com/citypark/platform/pkg/citymanager"
	"github.com/citypark/platform/pkg/common/config"
	"github.com/citypark/platform/pkg/common/database"
	"github.com/citypark/platform/pkg/common/kafka"
	"github.com/citypark/platform/pkg/common/logger"
	"github.com/citypark/platform/pkg/common/middleware"
	"github.com/citypark/platform/pkg/fetcher"
	"github.com/citypark/platform/pkg/observability/metrics"
	"github.com/citypark/platform/pkg/parking"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer database.ClosePostgres()

	repo := citymanager.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate city config tables")
	}
	audit := citymanager.NewAuditRepository(db)
	if err := audit.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate audit tables")
	}

	redisClient := database.GetRedis()
	defer database.CloseRedis()
	cache := citymanager.NewRedisCache(redisClient, cfg.CityConfigCacheTTL)

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.CityConfigTopic)
	defer producer.Close()

	configs := citymanager.NewService(repo, cache, producer)
	seed(configs, cfg.CityConfigSeedFile)

	opts := fetcher.Options{Timeout: cfg.SourceFetchTimeout}
	if cfg.SourceOAuthTokenURL != "" {
		opts.OAuth = &fetcher.OAuthConfig{
			TokenURL:     cfg.SourceOAuthTokenURL,
			ClientID:     cfg.SourceOAuthClientID,
			ClientSecret: cfg.SourceOAuthClientSecret,
			Scopes:       cfg.SourceOAuthScopes,
		}
	}
	engine := aggregation.NewEngine(fetcher.NewClient(opts))
	parkings := parking.NewService(configs, engine)

	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))
	router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.PingPostgres(ctx, db); err != nil {
			logger.Log.WithError(err).Warn("readiness check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	parking.NewHandler(parkings).Register(api)
	citymanager.NewHandler(configs, audit).Register(api)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Parking service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start parking service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down parking service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Parking service forced to shutdown")
	}
	logger.Log.Info("Parking service stopped")
}

func seed(configs *citymanager.Service, path string) {
	if path == "" {
		return
	}
	cities, err := citymanager.LoadSeed(path)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load city config seed file")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	created, err := configs.Seed(ctx, cities)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to seed city configurations")
	}
	logger.WithFields(map[string]interface{}{
		"file":    path,
		"cities":  len(cities),
		"created": created,
	}).Info("City configurations seeded")
}
