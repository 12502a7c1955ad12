package main

import (
	"net/http"
	"time"

	sheetcfg "github.com/genn/painel-os/internal/config"
	"github.com/genn/painel-os/internal/logger"
	"github.com/genn/painel-os/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type application struct {
	config config
	store  store.Storage
	sheets *sheetcfg.Config
	loader datasetLoader
	logger *logger.Logger
}

type config struct {
	addr          string
	db            dbConfig
	sheetsConfig  string
	datasetSource string
	fetchTimeout  time.Duration
	corsOrigins   []string
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

const (
	sourceSheet = "sheet"
	sourceDB    = "db"
)

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(60 * time.Second))

	// The dashboards call the API from the browser.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.config.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Route("/sheets", func(r chi.Router) {
			r.Get("/", app.handleGetSheets)
			r.Route("/{sheet}", func(r chi.Router) {
				r.Get("/panels/{panel}", app.handleGetPanel)
				r.Route("/metrics", func(r chi.Router) {
					r.Get("/count", app.handleGetCount)
					r.Get("/sum", app.handleGetSum)
					r.Get("/status", app.handleGetStatus)
					r.Get("/periods", app.handleGetPeriods)
					r.Get("/dimensions", app.handleGetDimensions)
				})
			})
		})
		r.Route("/ingestion", func(r chi.Router) {
			r.Get("/history", app.handleGetIngestionHistory)
			r.Post("/", app.handleCreateIngestion)
			r.Patch("/{id}/status", app.handleUpdateIngestionStatus)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 40,
		IdleTimeout:  time.Minute,
	}

	app.logger.Info("api", "server started: addr=%s source=%s", app.config.addr, app.config.datasetSource)
	return srv.ListenAndServe()
}
