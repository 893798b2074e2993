package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/jobboard/internal/crud"
	"github.com/kalambet/jobboard/internal/storage"
)

type binderKey struct{}

// withBinder resolves {entity} to its binder, answering 404 for unknown names.
func withBinder(svc *crud.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := chi.URLParam(r, "entity")
			b, ok := svc.Binder(name)
			if !ok {
				httpError(w, http.StatusNotFound, "Unknown entity %q", name)
				return
			}
			ctx := context.WithValue(r.Context(), binderKey{}, b)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func binderFrom(r *http.Request) *crud.Binder {
	return r.Context().Value(binderKey{}).(*crud.Binder)
}

func handleListEntities(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entities := deps.Service.Entities()
		names := make([]string, len(entities))
		for i, e := range entities {
			names[i] = e.Name
		}
		writeJSON(w, http.StatusOK, names)
	}
}

func handleListRecords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, binderFrom(r).List(r.Context()))
}

func handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		httpError(w, http.StatusNotFound, "Record not found")
		return
	}

	rec, err := binderFrom(r).Get(r.Context(), id)
	if errors.Is(err, crud.ErrNotFound) {
		httpError(w, http.StatusNotFound, "Record not found")
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "Failed to read data")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeRecord(w, r)
	if err != nil {
		httpError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	b := binderFrom(r)
	rec, err := b.Create(r.Context(), fields)
	if err != nil {
		slog.Error("creating record", "entity", b.Entity().Name, "error", err)
		httpError(w, http.StatusInternalServerError, "Failed to save data")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Record created successfully",
		"data":    rec,
	})
}

func handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		httpError(w, http.StatusNotFound, "Record not found")
		return
	}
	fields, err := decodeRecord(w, r)
	if err != nil {
		httpError(w, http.StatusBadRequest, "Invalid request body: %v", err)
		return
	}

	b := binderFrom(r)
	rec, err := b.Update(r.Context(), id, fields)
	if errors.Is(err, crud.ErrNotFound) {
		httpError(w, http.StatusNotFound, "Record not found")
		return
	}
	if err != nil {
		slog.Error("updating record", "entity", b.Entity().Name, "id", id, "error", err)
		httpError(w, http.StatusInternalServerError, "Failed to save data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Record updated successfully",
		"data":    b.Entity().ToExternal(rec),
	})
}

func handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		httpError(w, http.StatusNotFound, "Record not found")
		return
	}

	b := binderFrom(r)
	err := b.Delete(r.Context(), id)
	if errors.Is(err, crud.ErrNotFound) {
		httpError(w, http.StatusNotFound, "Record not found")
		return
	}
	if err != nil {
		slog.Error("deleting record", "entity", b.Entity().Name, "id", id, "error", err)
		httpError(w, http.StatusInternalServerError, "Failed to save data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Record deleted successfully"})
}

// recordID parses the {id} path segment. Non-numeric ids never match a record.
func recordID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// decodeRecord reads a JSON object body. An empty body is an empty record.
func decodeRecord(w http.ResponseWriter, r *http.Request) (storage.Record, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var rec storage.Record
	if err := dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return storage.Record{}, nil
		}
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return rec, nil
}
