package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"formulaplace/internal/handlers"
	applog "formulaplace/internal/log"
)

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(applog.Middleware)
	r.Use(instrument)
	r.Use(middleware.Recoverer)

	applog.Debug(context.Background(), "registering http routes")

	r.Get("/healthz", handlers.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/", handlers.Home)

	r.Route("/api/formulas", func(r chi.Router) {
		r.Get("/", handlers.ListFormulas)
		r.Post("/", handlers.CreateFormula)
		r.Get("/{id}", handlers.ShowFormula)
		r.Patch("/{id}", handlers.UpdateFormula)
		r.Delete("/{id}", handlers.DeleteFormula)
	})
	applog.Debug(context.Background(), "route registered", "path", "/api/formulas")

	r.Route("/formulas", func(r chi.Router) {
		r.Get("/", handlers.FormulaIndex)
		r.Post("/", handlers.FormulaCreate)
		r.Get("/new", handlers.FormulaNew)
		r.Post("/validate", handlers.FormulaValidateField)
		r.Get("/{id}", handlers.FormulaShow)
		r.Post("/{id}", handlers.FormulaUpdate)
		r.Get("/{id}/delete", handlers.FormulaDeleteConfirm)
		r.Post("/{id}/delete", handlers.FormulaDelete)
	})
	applog.Debug(context.Background(), "route registered", "path", "/formulas")

	return r
}
