// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"leadwatch/internal/core"
)

// Server holds the dependencies for our API.
type Server struct {
	app *core.App
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	return &Server{app: app}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/version", s.handleGetVersion)

	// Webhook routes sit outside the API token group: the backend posts
	// here with its own shared secret.
	r.Group(func(r chi.Router) {
		r.Use(s.WebhookAuthMiddleware)
		r.Post("/api/webhooks/workflow-completion/{jobID}", s.handleWorkflowCompletion)
		r.Get("/api/webhooks/workflow-completion/{jobID}", s.handleGetCompletionReceipt)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.AuthMiddleware)

		r.Route("/api", func(r chi.Router) {
			// Watch lifecycle
			r.Get("/watch", s.handleListWatches)
			r.Post("/watch/{jobID}", s.handleStartWatch)
			r.Get("/watch/{jobID}", s.handleGetWatch)
			r.Delete("/watch/{jobID}", s.handleStopWatch)

			// Job actions and history
			r.Post("/jobs/{jobID}/rerun-step", s.handleRerunStep)
			r.Get("/jobs/{jobID}/transitions", s.handleListTransitions)
		})
	})

	// WebSocket route
	r.Get("/ws/progress", func(w http.ResponseWriter, r *http.Request) {
		s.app.WsHub.ServeWs(w, r)
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.app.DB.Ping(); err != nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
			return
		}
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version})
}
