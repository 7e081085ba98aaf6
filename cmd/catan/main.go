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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/catan-labs/catan/internal/chunker"
	"github.com/catan-labs/catan/internal/config"
	"github.com/catan-labs/catan/internal/db"
	dbQdrant "github.com/catan-labs/catan/internal/db/qdrant"
	dbSQLite "github.com/catan-labs/catan/internal/db/sqlite"
	dbValkey "github.com/catan-labs/catan/internal/db/valkey"
	logpkg "github.com/catan-labs/catan/internal/logger"
	"github.com/catan-labs/catan/internal/metrics"
	chunkrepo "github.com/catan-labs/catan/internal/repository/chunk"
	"github.com/catan-labs/catan/internal/transport/api"
	chiTransport "github.com/catan-labs/catan/internal/transport/chi"
	openaiTransport "github.com/catan-labs/catan/internal/transport/openai"
	embeddinguc "github.com/catan-labs/catan/internal/usecase/embedding"
	healthuc "github.com/catan-labs/catan/internal/usecase/health"
	raguc "github.com/catan-labs/catan/internal/usecase/rag"
	"github.com/catan-labs/catan/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting Catan API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vector_store", cfg.VectorStore.Driver),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("google_project", cfg.Google.Project),
		zap.String("google_location", cfg.Google.Location),
		zap.String("database_uri", cfg.RedactedDatabaseURI()),
	)

	store, err := buildStore(&cfg.VectorStore)
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.VectorStore.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Vector store not ready", zap.Error(err))
	}
	logger.Info("Connected to vector store", zap.String("addr", cfg.VectorStore.Addr()))

	metrics.RegisterProviderMetrics()

	embedder := embeddinguc.NewInstrumentedEmbedder(
		openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.Provider.APIKey,
			BaseURL:    cfg.Provider.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Provider.Name,
			Logger:     logger,
		}),
		cfg.Provider.Name, cfg.Embedding.Model, logger,
	)

	chat := openaiTransport.NewChatModel(&openaiTransport.ChatConfig{
		APIKey:      cfg.Provider.APIKey,
		BaseURL:     cfg.Provider.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		TopK:        cfg.LLM.TopK,
		MaxTokens:   cfg.LLM.MaxOutputTokens,
		Provider:    cfg.Provider.Name,
		Logger:      logger,
	})

	ragSvc := raguc.New(embedder, chunkrepo.New(store), chat, chunker.New(), logger)
	healthSvc := healthuc.New(store, embedder, logger)

	server := chiTransport.NewServer(ragSvc, healthSvc, cfg.HTTP.MaxContentLength, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	api.HandlerWithOptions(server, api.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.BadRequest,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildStore opens the vector store for the configured driver.
func buildStore(cfg *config.VectorStoreConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverQdrant:
		s, err := dbQdrant.NewStore(dbQdrant.Config{
			URL:    "http://" + cfg.Addr(),
			APIKey: cfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant: %w", err)
		}
		return s, nil
	case config.DriverValkey, config.DriverRedis:
		s, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:           []string{cfg.Addr()},
			Password:        cfg.Password,
			KeyPrefix:       cfg.KeyPrefix,
			HNSWM:           cfg.HNSWM,
			HNSWEFConstruct: cfg.HNSWEFConstruct,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Driver, err)
		}
		return s, nil
	case config.DriverSQLite:
		s, err := dbSQLite.NewStore(dbSQLite.Config{Path: cfg.SQLitePath})
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown vector store driver %q", cfg.Driver)
	}
}
