package server

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// chatTimeout bounds a whole request including the upstream LLM call, which
// can legitimately take minutes.
const chatTimeout = 5 * time.Minute

// SetupRouter wires middleware and routes around the handler.
func SetupRouter(h *Handler, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(chatTimeout))

	// Unauthenticated surface.
	r.Get("/api/health", h.Health)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)

	// Everything else sits behind the session gate.
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireSession)

		r.Get("/", h.Index)
		r.Get("/mfa-setup", h.MFASetup)

		r.Route("/api", func(r chi.Router) {
			r.Post("/chat", h.Chat)
			r.Post("/execute", h.Execute)
			r.Get("/history", h.History)
			r.Post("/history/clear", h.ClearHistory)
			r.Route("/snippets", func(r chi.Router) {
				r.Get("/", h.ListSnippets)
				r.Post("/", h.SaveSnippet)
				r.Delete("/{id}", h.DeleteSnippet)
			})
		})
	})

	return r
}
