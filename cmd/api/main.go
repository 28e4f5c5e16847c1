package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cinepick/cinepick/internal/api/handlers"
	"github.com/cinepick/cinepick/internal/api/middleware"
	"github.com/cinepick/cinepick/internal/config"
	"github.com/cinepick/cinepick/internal/embeddings"
	"github.com/cinepick/cinepick/internal/repository"
	"github.com/cinepick/cinepick/internal/service"
	"github.com/cinepick/cinepick/pkg/database"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	var poolOpts []database.PoolOption
	if cfg.DBMaxConns > 0 {
		poolOpts = append(poolOpts, database.WithMaxConns(int32(cfg.DBMaxConns)))
	}

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, poolOpts...)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		slog.Error("Failed to build embedding client", "error", err)
		os.Exit(1)
	}

	moviesRepo := repository.NewMoviesRepository(db)

	recommendService := service.NewRecommendService(service.RecommendServiceParams{
		Embedder: embedder,
		Repo:     moviesRepo,
	})
	recommendationsHandler := handlers.NewRecommendationsHandler(recommendService, handlers.Defaults{
		Space:  cfg.EmbeddingSpace,
		Metric: cfg.ScoreMetric,
	})
	healthHandler := handlers.NewHealthHandler()

	// Public endpoints (no authentication).
	publicMux := http.NewServeMux()
	publicMux.HandleFunc("GET /health", healthHandler.Check)

	// Recommendation endpoints, optionally behind a static API key.
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /v1/recommendations", recommendationsHandler.Recommend)
	apiMux.HandleFunc("GET /v1/movies/{id}", recommendationsHandler.GetMovie)
	apiMux.HandleFunc("GET /v1/movies/{id}/similar", recommendationsHandler.SimilarMovies)

	var apiHandler http.Handler = apiMux
	if cfg.APIKey != "" {
		apiHandler = middleware.Auth(cfg.APIKey)(apiHandler)
	} else {
		slog.Warn("API_KEY not set; /v1 routes are unauthenticated")
	}

	mainMux := http.NewServeMux()
	mainMux.Handle("/v1/", apiHandler)
	mainMux.Handle("/", publicMux)

	handler := middleware.RequestID(middleware.Logging(mainMux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting server",
			"port", cfg.Port,
			"embedding_provider", cfg.EmbeddingProvider,
			"default_space", cfg.EmbeddingSpace,
			"default_metric", cfg.ScoreMetric,
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// buildEmbedder wires the configured provider behind the rate-limiting and
// caching decorators. Caching stays in the embedder; the ranking pipeline
// itself holds no cache.
func buildEmbedder(cfg *config.Config) (embeddings.Client, error) {
	var client embeddings.Client

	switch cfg.EmbeddingProvider {
	case config.ProviderMock:
		client = embeddings.NewMockClient()
		slog.Warn("Using mock embedding client; recommendations are not semantically meaningful")
	default:
		client = embeddings.NewOpenAIClient(
			cfg.OpenAIAPIKey,
			time.Duration(cfg.EmbeddingTimeoutSeconds)*time.Second,
		)
	}

	client = embeddings.NewRateLimited(client, cfg.EmbeddingRateLimit)

	if cfg.QueryCacheSize > 0 {
		cached, err := embeddings.NewCaching(client, cfg.QueryCacheSize)
		if err != nil {
			return nil, err
		}

		client = cached
	}

	return client, nil
}

// setupLogging configures slog with the specified log level.
func setupLogging(level string) {
	var logLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}
