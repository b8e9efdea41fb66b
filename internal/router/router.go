// Package router sets up the HTTP routes and middleware chain for the
// RateHub API. All resource routes live under /api/v1.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ratehub/internal/handlers"
	"ratehub/internal/middleware"
	"ratehub/internal/store"
	"ratehub/internal/token"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. The rate limiter guards the auth endpoints
// only; passing nil disables it.
func New(
	bearer *token.Bearer,
	users *store.UserStore,
	authLimiter *middleware.RateLimiter,
	auth *handlers.Auth,
	categories *handlers.Categories,
	genres *handlers.Genres,
	titles *handlers.Titles,
	reviews *handlers.Reviews,
	comments *handlers.Comments,
	accounts *handlers.Users,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.Authenticate(bearer, users))

	// Health check, outside the versioned prefix.
	r.Get("/health", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints. Anonymous by definition, rate limited so
		// confirmation codes cannot be brute forced.
		r.Group(func(r chi.Router) {
			if authLimiter != nil {
				r.Use(authLimiter.Middleware)
			}
			r.Post("/auth/signup/", auth.Signup)
			r.Post("/auth/token/", auth.Token)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categories.List)
			r.Post("/", categories.Create)
			r.Delete("/{slug}/", categories.Delete)
		})

		r.Route("/genres", func(r chi.Router) {
			r.Get("/", genres.List)
			r.Post("/", genres.Create)
			r.Delete("/{slug}/", genres.Delete)
		})

		r.Route("/titles", func(r chi.Router) {
			r.Get("/", titles.List)
			r.Post("/", titles.Create)

			r.Route("/{titleID}", func(r chi.Router) {
				r.Get("/", titles.Get)
				r.Put("/", titles.Update)
				r.Patch("/", titles.Update)
				r.Delete("/", titles.Delete)

				r.Route("/reviews", func(r chi.Router) {
					r.Get("/", reviews.List)
					r.Post("/", reviews.Create)

					r.Route("/{reviewID}", func(r chi.Router) {
						r.Get("/", reviews.Get)
						r.Put("/", reviews.Update)
						r.Patch("/", reviews.Update)
						r.Delete("/", reviews.Delete)

						r.Route("/comments", func(r chi.Router) {
							r.Get("/", comments.List)
							r.Post("/", comments.Create)

							r.Route("/{commentID}", func(r chi.Router) {
								r.Get("/", comments.Get)
								r.Put("/", comments.Update)
								r.Patch("/", comments.Update)
								r.Delete("/", comments.Delete)
							})
						})
					})
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", accounts.List)
			r.Post("/", accounts.Create)

			// Self-service endpoints must register before the username
			// wildcard so "me" never reaches the admin handlers.
			r.Get("/me/", accounts.Me)
			r.Patch("/me/", accounts.UpdateMe)

			r.Route("/{username}", func(r chi.Router) {
				r.Get("/", accounts.Get)
				r.Patch("/", accounts.Update)
				r.Delete("/", accounts.Delete)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
