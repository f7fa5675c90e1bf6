package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medgraph/medrecords-qa/internal/adapters/cache"
	"github.com/medgraph/medrecords-qa/internal/adapters/database"
	"github.com/medgraph/medrecords-qa/internal/adapters/search"
	"github.com/medgraph/medrecords-qa/internal/api/handlers"
	"github.com/medgraph/medrecords-qa/internal/api/middleware"
	"github.com/medgraph/medrecords-qa/internal/api/routes"
	"github.com/medgraph/medrecords-qa/internal/application/services"
	"github.com/medgraph/medrecords-qa/internal/domain/providers"
	"github.com/medgraph/medrecords-qa/internal/domain/repositories"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/clients/openai"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/clients/postgres"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/clients/redis"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/clients/typesense"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/observability"
	"github.com/medgraph/medrecords-qa/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Environment)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Postgres holds the record corpus and analytics; it is required.
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	logger.Info().Msg("PostgreSQL client initialized")

	// Redis is optional; the service runs without caching.
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		logger.Info().Msg("Redis client initialized")
	}

	// Typesense is optional; retrieval degrades to empty results without it.
	var searchRepo repositories.RecordSearchRepository
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		logger.Warn().Err(err).Msg("Typesense unavailable, semantic retrieval disabled")
	} else {
		searchAdapter := search.NewTypesenseAdapter(typesenseClient)
		if err := searchAdapter.InitSchema(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to init Typesense schema")
		}
		searchRepo = searchAdapter
		logger.Info().Msg("Typesense client initialized")
	}

	// The generation backend is optional; without it classification and
	// synthesis fall back to their degraded responses.
	var generator providers.TextGenerator
	if cfg.OpenAI.APIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY not set, generation disabled")
	} else {
		openaiClient, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize OpenAI client")
		} else {
			generator = openaiClient
		}
	}

	recordAdapter := database.NewRecordAdapter(pgClient)
	analyticsAdapter := database.NewQueryAnalyticsAdapter(pgClient)
	if err := analyticsAdapter.InitSchema(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to init analytics schema")
	}

	// Assemble the pipeline
	classifier := services.NewClassifierService(generator)
	classifier.SetMetrics(metrics)
	if cacheProvider != nil {
		classifier.SetCache(cacheProvider)
	}

	analyticsService := services.NewQueryAnalyticsService(analyticsAdapter)

	pipeline := services.NewQueryPipeline(
		classifier,
		services.NewRetrievalService(searchRepo, recordAdapter),
		services.NewContextService(),
		services.NewEvidenceService(),
		services.NewAnswerService(generator),
	)
	pipeline.SetAnalytics(analyticsService)
	pipeline.SetMetrics(metrics)

	queryHandler := handlers.NewQueryHandler(pipeline, analyticsService)
	patientHandler := handlers.NewPatientHandler(recordAdapter)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		cacheMiddleware.SetMetrics(metrics)
		logger.Info().Msg("cache middleware initialized")
	}

	router := routes.NewRouter(queryHandler, patientHandler, cacheMiddleware, metrics)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	logger.Info().Msg("server stopped")
}
