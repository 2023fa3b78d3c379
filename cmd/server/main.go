package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/clipstack/clipstack/internal/api"
	"github.com/clipstack/clipstack/internal/api/handler"
	"github.com/clipstack/clipstack/internal/auth"
	"github.com/clipstack/clipstack/internal/blob"
	"github.com/clipstack/clipstack/internal/config"
	"github.com/clipstack/clipstack/internal/storage/sql"
	"github.com/clipstack/clipstack/internal/tiktok"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func newLogger(cfg *config.ServerConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.LogJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	logger := newLogger(&cfg.Server)

	// Create data directory if needed (for SQLite)
	if cfg.Database.Driver == "sqlite3" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0o755); err != nil {
			logger.Fatalf("Failed to create data directory: %v", err)
		}
	}

	store, err := sql.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	encKey, err := cfg.Auth.EncryptionKeyBytes()
	if err != nil {
		logger.Fatalf("Invalid encryption key: %v", err)
	}
	secrets := &auth.StaticSecrets{
		KeySecret: cfg.Auth.APIKeySecret,
		EncKey:    encKey,
	}

	cipher, err := auth.NewTokenCipher(secrets)
	if err != nil {
		logger.Fatalf("Failed to initialize token cipher: %v", err)
	}

	hasher := auth.NewHasher(secrets)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	states := auth.NewStateStore(cipher, false)

	// TikTok client (or stub for development/testing)
	var ttClient tiktok.Client
	if cfg.UseStub() {
		logger.Warnf("Using stub TikTok client: %s", cfg.TikTok.Stub)
		ttClient = tiktok.NewStub(cfg.TikTok.Stub)
	} else {
		ttClient = tiktok.New(cfg.TikTok.ClientKey, cfg.TikTok.ClientSecret)
	}

	// Blob storage for uploaded videos
	var blobs blob.Store
	switch cfg.Storage.Driver {
	case "s3":
		blobs, err = blob.NewS3(context.Background(), cfg.Storage.Bucket, cfg.Storage.Region, cfg.Storage.Endpoint)
		if err != nil {
			logger.Fatalf("Failed to initialize S3 storage: %v", err)
		}
	default:
		blobs, err = blob.NewLocal(cfg.Storage.LocalPath)
		if err != nil {
			logger.Fatalf("Failed to initialize local blob storage: %v", err)
		}
	}

	// Optional SSO login
	var oidcHandler *handler.OIDCHandler
	if cfg.OIDC.Enabled {
		provider, err := auth.NewOIDCProvider(
			context.Background(),
			cfg.OIDC.IssuerURL,
			cfg.OIDC.ClientID,
			cfg.OIDC.ClientSecret,
			cfg.OIDC.RedirectURL,
			cfg.OIDC.GetScopes(),
			cfg.OIDC.GetAllowedDomains(),
		)
		if err != nil {
			logger.Fatalf("Failed to initialize OIDC provider: %v", err)
		}
		oidcHandler = handler.NewOIDCHandler(store, provider, states, tokens, cfg.OIDC.FrontendURL, logger)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := api.NewRouter(api.Deps{
		Store:          store,
		Hasher:         hasher,
		Tokens:         tokens,
		Cipher:         cipher,
		States:         states,
		TikTok:         ttClient,
		Blobs:          blobs,
		Logger:         logger,
		OIDC:           oidcHandler,
		Registry:       registry,
		AllowedOrigins: cfg.Server.GetAllowedOrigins(),
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Infof("Starting Clipstack on http://%s", cfg.Server.Addr())

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
