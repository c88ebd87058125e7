package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/comanda-pos/api/internal/handler"
	"github.com/comanda-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(sessions *handler.SessionHandler, kitchenH *handler.KitchenHandler, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // dev server
			"http://localhost:8080", // kitchen display kiosks
		},
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

	// WebSocket route for kitchen display notifications
	r.Get("/ws/kitchen", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	// Ordering sessions (cart composition + submit)
	r.Route("/sessions", sessions.RegisterRoutes)

	// Kitchen displays (queues, transitions, forced refresh)
	r.Route("/kitchen", kitchenH.RegisterRoutes)

	return r
}
