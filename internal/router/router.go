package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kiwari-pos/ordering/internal/config"
	"github.com/kiwari-pos/ordering/internal/handler"
	mw "github.com/kiwari-pos/ordering/internal/middleware"
	"github.com/kiwari-pos/ordering/internal/ws"
	"go.uber.org/zap"
)

// Registry is the session registry surface the handlers need.
// Satisfied by *session.Registry.
type Registry interface {
	handler.CartRegistry
	handler.SessionStore
}

// New creates a Chi router with all application routes wired up.
// Everything except session creation, health and the WebSocket upgrade
// requires a session token.
func New(cfg *config.Config, sessions Registry, hub *ws.Hub, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	sessionHandler := handler.NewSessionHandler(sessions, cfg.JWTSecret, cfg.SessionTTL)
	sessionHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/cart", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require a session token)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		sessionHandler.RegisterAuthedRoutes(r)

		cartHandler := handler.NewCartHandler(sessions, logger)
		r.Route("/cart", cartHandler.RegisterRoutes)
		r.Route("/orders", cartHandler.RegisterLedgerRoutes)

		filterHandler := handler.NewFilterHandler()
		r.Route("/filters", filterHandler.RegisterRoutes)
	})

	logger.Info("router initialized", zap.Strings("allowed_origins", cfg.AllowedOrigins))
	return r
}
