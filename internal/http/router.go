package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig wires handlers and middleware into the HTTP surface.
type RouterConfig struct {
	Reminders     *ReminderHandler
	Conversations *ConversationHandler
	Events        http.Handler
	Sessions      SessionReader
	Middleware    []func(http.Handler) http.Handler
}

// NewRouter builds the router. Everything under /api requires a session;
// the websocket event stream and the health probe do not.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if cfg.Events != nil {
		r.Get("/ws", cfg.Events.ServeHTTP)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.Sessions != nil {
			api.Use(RequireSession(cfg.Sessions, nil))
		}
		if cfg.Reminders != nil {
			api.Get("/reminders", cfg.Reminders.List)
			api.Post("/reminders/{id}/fire", cfg.Reminders.Fire)
		}
		if cfg.Conversations != nil {
			api.Get("/conversations", cfg.Conversations.List)
		}
	})

	return r
}
