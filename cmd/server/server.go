// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veldtcms/veldt/internal/api"
	"github.com/veldtcms/veldt/internal/api/themes"
	"github.com/veldtcms/veldt/internal/config"
)

const shutdownTimeout = 30 * time.Second

func newServer(cfg *config.Config) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	// Register routes
	registerRoutes(router)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Theme routes
	mux.HandleFunc("GET /api/v1/orgs/{org}/theme", themes.HandleThemeGet)
	mux.HandleFunc("PUT /api/v1/orgs/{org}/theme", themes.HandleThemeUpdate)
	mux.HandleFunc("DELETE /api/v1/orgs/{org}/theme", themes.HandleThemeDelete)
	mux.HandleFunc("POST /api/v1/orgs/{org}/theme/replace", themes.HandleThemeReplace)
	mux.HandleFunc("POST /api/v1/orgs/{org}/theme/preview", themes.HandleThemePreview)
	mux.HandleFunc("DELETE /api/v1/orgs/{org}/theme/preview", themes.HandleThemePreviewCancel)
	mux.HandleFunc("GET /api/v1/orgs/{org}/theme.css", themes.HandleThemeCSS)
	mux.HandleFunc("GET /api/v1/orgs/{org}/theme/validation", themes.HandleThemeValidation)

	// Template catalog routes
	mux.HandleFunc("GET /api/v1/templates", themes.HandleTemplatesList)
	mux.HandleFunc("GET /api/v1/templates/{id}", themes.HandleTemplateGet)
	mux.HandleFunc("POST /api/v1/orgs/{org}/theme/template/{id}", themes.HandleTemplateAdopt)

	// Static file handling for branding assets
	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "static"
	}
	fs := http.FileServer(http.Dir(staticDir))

	mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug().
			Str("path", r.URL.Path).
			Str("static_dir", staticDir).
			Msg("Static file request")
		http.StripPrefix("/static/", fs).ServeHTTP(w, r)
	}))
}
