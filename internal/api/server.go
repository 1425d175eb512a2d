// Package api provides the HTTP API server and handlers for the Pothpath application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pothpath/pothpath-server/internal/config"
	"github.com/pothpath/pothpath-server/internal/ratelimit"
	"github.com/pothpath/pothpath-server/internal/service"
	"github.com/pothpath/pothpath-server/internal/storage"
	"github.com/pothpath/pothpath-server/internal/store/sqlite"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth       *service.AuthService
	Books      *service.BookService
	Uploads    *service.UploadService
	Moderation *service.ModerationService
	Genres     *service.GenreService
	Stats      *service.StatsService
	Prefs      *service.PrefsService
	Profile    *service.ProfileService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       *sqlite.Store
	storage     *storage.Storage
	services    *Services
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger
	authLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *sqlite.Store, files *storage.Storage, services *Services, cfg *config.Config, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	router.Use(requestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("Pothpath API", apiVersion)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:       store,
		storage:     files,
		services:    services,
		router:      router,
		api:         api,
		logger:      logger,
		authLimiter: ratelimit.New(cfg.Auth.LoginRatePerSecond, cfg.Auth.LoginRateBurst),
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBookRoutes()
	s.registerGenreRoutes()
	s.registerProfileRoutes()
	s.registerPrefsRoutes()
	s.registerAdminRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-owned resources. The stores are owned by the
// caller and closed separately.
func (s *Server) Close() {
	s.authLimiter.Stop()
}
