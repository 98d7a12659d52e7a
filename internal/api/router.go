package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/dsaflash/internal/catalog"
)

// Deps are the collaborators of the HTTP surface.
type Deps struct {
	Catalog        *catalog.Service
	Events         http.Handler // mounted at GET /api/events when set
	UploadDir      string
	MaxUploadBytes int64
	AllowedOrigins []string
}

// NewRouter creates a chi router with all API routes, to be mounted under
// /api.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Catalog)
	uh := NewUploadHandler(d.UploadDir, d.MaxUploadBytes)

	r := chi.NewRouter()

	r.Get("/health", h.Health)

	r.Route("/topics", func(r chi.Router) {
		r.Get("/", h.ListTopics)
		r.Post("/", h.CreateTopic)
		r.Put("/{id}", h.UpdateTopic)
		r.Delete("/{id}", h.DeleteTopic)
	})

	r.Route("/problems", func(r chi.Router) {
		r.Get("/", h.ListProblems)
		r.Post("/", h.CreateProblem)
		r.Get("/topic/{topicId}", h.ListProblemsByTopic)
		r.Put("/{id}", h.UpdateProblem)
		r.Delete("/{id}", h.DeleteProblem)
	})

	r.Get("/topic-notes/{topicId}", h.GetTopicNotes)
	r.Post("/topic-notes/{topicId}", h.SaveTopicNotes)

	r.Post("/upload", uh.Upload)

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}

// NewServer builds the full HTTP handler: middleware, the API under /api,
// uploaded files under /uploads, probes and metrics.
func NewServer(d Deps) http.Handler {
	uh := NewUploadHandler(d.UploadDir, d.MaxUploadBytes)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware(d.AllowedOrigins))
	r.Use(MetricsMiddleware)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, ProbeResponse{Status: "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.Catalog.Store().Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, ProbeResponse{Status: "unavailable", Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, ProbeResponse{Status: "ok"})
	})
	r.Handle("/metrics", MetricsHandler())

	r.Get("/uploads/{filename}", uh.ServeFile)
	r.Mount("/api", NewRouter(d))

	return r
}
