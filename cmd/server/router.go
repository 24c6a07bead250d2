package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/scry-tutor/internal/api"
	apiMiddleware "github.com/phrazzld/scry-tutor/internal/api/middleware"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokens)
	answerHandler := api.NewAnswerHandler(app.pipeline,
		api.WithRetryAfter(app.rateLimitRetryAfter(), app.config.CircuitBreaker.Cooldown))
	statusHandler := api.NewStatusHandler(app.provider.Name(), app.breakers, app.cache, app.counter)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/answers", answerHandler.CreateAnswer)
			r.Get("/status", statusHandler.GetStatus)
		})
	})

	r.Get("/health", api.Health)

	return r
}

// rateLimitRetryAfter is the time a normal-tier caller waits for one token.
func (app *application) rateLimitRetryAfter() time.Duration {
	refill := app.config.RateLimit.Normal.RefillPerSecond
	if refill <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / refill)
}
