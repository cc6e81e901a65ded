package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/edugen/examgen-api/internal/api"
	apiMiddleware "github.com/edugen/examgen-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	generationHandler := api.NewGenerationHandler(
		app.generationService,
		app.pool,
		app.config.LLM.Provider,
		app.logger,
	)

	r.Route("/api", func(r chi.Router) {
		r.Post("/generations", generationHandler.SubmitGeneration)
		r.Get("/generations", generationHandler.ListGenerations)
		r.Get("/generations/{id}", generationHandler.GetGeneration)

		r.Get("/credentials/status", generationHandler.CredentialStatus)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
