package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kalambet/jobboard/internal/crud"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds what the HTTP surface needs.
type Deps struct {
	Service     *crud.Service
	Credentials Credentials
	// StaticDir is served for everything outside /api. Empty disables it.
	StaticDir string
}

// NewHandler returns the jobboard HTTP API: entity CRUD under /api/{entity},
// login, health, and static pages.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handleLogin(deps.Credentials))
		r.Get("/entities", handleListEntities(deps))

		r.Route("/{entity}", func(r chi.Router) {
			r.Use(withBinder(deps.Service))
			r.Get("/", handleListRecords)
			r.Post("/", handleCreateRecord)
			r.Get("/{id}", handleGetRecord)
			r.Put("/{id}", handleUpdateRecord)
			r.Delete("/{id}", handleDeleteRecord)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httpError(w, http.StatusNotFound, "Not found")
		})
	})

	if deps.StaticDir != "" {
		r.Get("/*", handleStatic(deps.StaticDir))
	}

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			slog.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	writeJSON(w, code, map[string]any{"message": fmt.Sprintf(format, args...)})
}
