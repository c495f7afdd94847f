package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BuzzLyutic/kanban-board/internal/auth"
	"github.com/BuzzLyutic/kanban-board/pkg/respond"
)

// NewRouter собирает маршруты API. Все пути проекта закрыты аутентификацией.
func NewRouter(h *TaskHandler, authn *auth.Authenticator, accessLog bool) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if accessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/projects/{projectID}", func(r chi.Router) {
		r.Use(authn.Middleware)

		r.Get("/stats", h.Stats)
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Get("/{taskID}", h.Get)
			r.Put("/{taskID}", h.Update)
			r.Patch("/{taskID}/status", h.UpdateStatus)
			r.Delete("/{taskID}", h.Delete)
		})
	})

	return r
}
