package api

import (
	"net/http"
	"time"

	"github.com/clipstack/clipstack/internal/api/handler"
	"github.com/clipstack/clipstack/internal/api/middleware"
	"github.com/clipstack/clipstack/internal/auth"
	"github.com/clipstack/clipstack/internal/blob"
	"github.com/clipstack/clipstack/internal/domain"
	"github.com/clipstack/clipstack/internal/storage"
	"github.com/clipstack/clipstack/internal/tiktok"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Deps bundles the dependencies the router needs.
type Deps struct {
	Store  storage.Storage
	Hasher *auth.Hasher
	Tokens *auth.TokenIssuer
	Cipher *auth.TokenCipher
	States *auth.StateStore
	TikTok tiktok.Client
	Blobs  blob.Store
	Logger *logrus.Logger
	// OIDC is optional; when nil the SSO routes are not mounted.
	OIDC *handler.OIDCHandler
	// Registry receives the HTTP metrics. Each router gets its own so
	// tests can build routers independently.
	Registry *prometheus.Registry
	// AllowedOrigins configures CORS for the SPA frontend.
	AllowedOrigins []string
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	metrics := middleware.NewMetrics(d.Registry)

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(d.Logger))
	r.Use(metrics.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.APIKeyHeader},
		MaxAge:         300,
	}))

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Method("GET", "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))

	authHandler := handler.NewAuthHandler(d.Store, d.Tokens)
	tiktokHandler := handler.NewTikTokHandler(d.Store, d.TikTok, d.Cipher, d.States, d.Logger)
	videoHandler := handler.NewVideoHandler(d.Store, d.Blobs)
	analyticsHandler := handler.NewAnalyticsHandler(d.Store)
	keyHandler := handler.NewAPIKeyHandler(d.Store, d.Hasher)
	externalHandler := handler.NewExternalHandler(d.Store, d.Blobs)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentType)
		// Credential guessing gets throttled per client IP
		r.Use(httprate.LimitByIP(20, time.Minute))

		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
	})

	if d.OIDC != nil {
		r.Get("/auth/oidc/login", d.OIDC.Login)
		r.Get("/auth/oidc/callback", d.OIDC.Callback)
	}

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(middleware.ContentType)
		r.Post("/tiktok", tiktokHandler.Webhook)
	})

	// Dashboard routes (JWT session required)
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentType)
		r.Use(middleware.Session(d.Tokens))

		// TikTok accounts
		r.Post("/tiktok/auth-url", tiktokHandler.AuthURL)
		r.Post("/tiktok/connect", tiktokHandler.Connect)
		r.Get("/tiktok/accounts", tiktokHandler.ListAccounts)
		r.Delete("/tiktok/accounts/{id}", tiktokHandler.Disconnect)

		// Videos
		r.Post("/videos/upload", videoHandler.Upload)
		r.Post("/videos/upload-url", videoHandler.UploadURL)
		r.Get("/videos", videoHandler.List)

		// Analytics
		r.Get("/analytics/account/{account_id}", analyticsHandler.Account)
		r.Get("/analytics/video/{video_id}", analyticsHandler.Video)

		// API keys
		r.Post("/settings/api-keys", keyHandler.Create)
		r.Get("/settings/api-keys", keyHandler.List)
		r.Delete("/settings/api-keys/{id}", keyHandler.Delete)
	})

	// External API (API key required)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.ContentType)
		r.Use(middleware.APIKeyAuth(d.Store, d.Hasher))

		r.With(middleware.RequirePermission(domain.PermissionWrite)).
			Post("/upload-video", externalHandler.UploadVideo)
		r.With(middleware.RequirePermission(domain.PermissionRead)).
			Get("/analytics/{account_id}", externalHandler.Analytics)
	})

	return r
}
