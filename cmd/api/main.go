// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/strugal/inventory-platform/internal/config"
	"github.com/strugal/inventory-platform/internal/handler"
	"github.com/strugal/inventory-platform/internal/llm"
	"github.com/strugal/inventory-platform/internal/locale"
	"github.com/strugal/inventory-platform/internal/middleware"
	natsclient "github.com/strugal/inventory-platform/internal/nats"
	"github.com/strugal/inventory-platform/internal/relay"
	"github.com/strugal/inventory-platform/internal/service"
	"github.com/strugal/inventory-platform/internal/store"
	"github.com/strugal/inventory-platform/pkg/logger"
	"github.com/strugal/inventory-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "strugal-inventory", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open database
	db, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err), zap.String("path", cfg.DatabasePath))
	}
	defer db.Close()

	// Connect to NATS when event publishing is enabled
	var natsClient *natsclient.Client
	var publisher service.Publisher
	if cfg.NATSEnabled {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		publisher = streamManager
	}

	// Initialize the upstream provider. Without a key the chat endpoint
	// answers with a configuration error.
	var llmClient llm.Client
	if cfg.MistralAPIKey != "" {
		llmClient, err = llm.NewMistralClient(cfg.MistralAPIKey, llm.WithEndpoint(cfg.MistralAPIURL))
		if err != nil {
			log.Warn("failed to create Mistral client, chat disabled", zap.Error(err))
			llmClient = nil
		}
	} else {
		log.Warn("MISTRAL_API_KEY is not set, chat disabled")
	}

	texts := locale.For(locale.Parse(cfg.Language))
	chatRelay := relay.New(llmClient, relay.Params{
		SystemPrompt: texts.SystemPrompt,
		Model:        cfg.MistralModel,
		MaxTokens:    cfg.ChatMaxTokens,
		Temperature:  cfg.ChatTemperature,
	}, log.Named("relay"))

	// Initialize services
	authSvc := service.NewAuthService(store.NewUserRepository(db), cfg.JWTSecret, cfg.JWTExpiration, log)
	if err := authSvc.SeedUser(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatal("failed to seed admin user", zap.Error(err))
	}
	inventorySvc := service.NewInventoryService(store.NewInventoryRepository(db), publisher, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db, natsClient)
	chatHandler := handler.NewChatHandler(chatRelay, cfg.ChatMaxDuration, log)
	authHandler := handler.NewAuthHandler(authSvc, log)
	inventoryHandler := handler.NewInventoryHandler(inventorySvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Public API, limited per client IP
	publicLimit := middleware.RateLimit(cfg.ChatRateLimitRequests, cfg.RateLimitWindow)
	r.With(publicLimit).Post("/api/chat", chatHandler.Chat)
	r.With(publicLimit).Post("/api/login", authHandler.Login)

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", inventoryHandler.List)
			r.Post("/", inventoryHandler.Create)
			r.Get("/stats", inventoryHandler.Stats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", inventoryHandler.Get)
				r.Put("/", inventoryHandler.Update)
				r.Delete("/", inventoryHandler.Delete)
			})
		})
	})

	// The write deadline must outlast the longest chat stream.
	writeTimeout := cfg.ServerWriteTimeout
	if writeTimeout <= cfg.ChatMaxDuration {
		writeTimeout = cfg.ChatMaxDuration + 5*time.Second
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort), zap.String("language", string(texts.Language)))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
