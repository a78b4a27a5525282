package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/cortexchain/chain-machine/internal/chain"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	resolver *chain.Resolver
	logger   *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(resolver *chain.Resolver, logger *zap.Logger) *Handler {
	return &Handler{resolver: resolver, logger: logger}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.healthCheck)
	r.Get("/task", h.queryTask)
	r.Get("/signature", h.querySignature)

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "chain-machine"})
}

// queryTask resolves the routes a caller is entitled to for a task.
// Role parsing happens here, before the resolver is ever invoked: an
// unrecognized role is an internal fault regardless of task existence.
func (h *Handler) queryTask(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("task query received")

	taskID := r.URL.Query().Get("task_id")
	roleParam := r.URL.Query().Get("role")
	if taskID == "" {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "task_id is required"})
		return
	}
	if roleParam == "" {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "role is required"})
		return
	}

	role, err := chain.ParseRole(roleParam)
	if err != nil {
		h.logger.Error("unknown role", zap.String("role", roleParam))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal service error"})
		return
	}

	// Once resolution starts it runs to a terminal outcome: a client
	// disconnect must not abort in-flight store or directory calls.
	result, err := h.resolver.ResolveTask(context.WithoutCancel(r.Context()), taskID, role)
	if err != nil {
		h.writeResolveError(w, err, "there is no such task")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// querySignature projects an account's credential record.
func (h *Handler) querySignature(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "account_id is required"})
		return
	}

	result, err := h.resolver.ResolveSignature(context.WithoutCancel(r.Context()), accountID)
	if err != nil {
		h.writeResolveError(w, err, "there is no such account")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeResolveError maps the core error taxonomy to wire statuses:
// malformed id 400, not found 404, store down 503, everything else an
// opaque 500. Dependency failures never leak detail to the caller.
func (h *Handler) writeResolveError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, chain.ErrValidation):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, chain.ErrInvalidIdentifier):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed identifier"})
	case errors.Is(err, chain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": notFoundMsg})
	case errors.Is(err, chain.ErrStoreUnavailable):
		h.logger.Error("record store failure", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "record store unavailable"})
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal service error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
