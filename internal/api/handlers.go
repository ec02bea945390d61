package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/policyscope/policyscan/internal/model"
	"github.com/policyscope/policyscan/internal/pipeline"
	"github.com/policyscope/policyscan/internal/store"
)

// Handler serves the scan API.
type Handler struct {
	pipeline *pipeline.Pipeline
	store    store.Store
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type discoverRequest struct {
	Domain string `json:"domain"`
}

func (h *Handler) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Domain == "" {
		writeError(w, http.StatusBadRequest, "domain is required")
		return
	}

	policies, err := h.pipeline.Discover(r.Context(), req.Domain)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"domain":   req.Domain,
		"policies": policies,
	})
}

type scanRequest struct {
	Domain string `json:"domain"`
	Name   string `json:"name,omitempty"`
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Domain == "" {
		writeError(w, http.StatusBadRequest, "domain is required")
		return
	}

	result, err := h.pipeline.ProcessCompany(r.Context(), model.Company{
		Domain: req.Domain,
		Name:   req.Name,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no store configured")
		return
	}

	filter := store.CompanyFilter{
		Country: r.URL.Query().Get("country"),
		Limit:   queryInt(r, "limit", 100),
		Offset:  queryInt(r, "offset", 0),
	}

	companies, err := h.store.ListCompanies(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"companies": companies,
		"count":     len(companies),
	})
}

func (h *Handler) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no store configured")
		return
	}

	domain := chi.URLParam(r, "domain")
	company, err := h.store.GetCompany(r.Context(), domain)
	if err != nil {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}

	policies, err := h.store.GetDiscoveredPolicies(r.Context(), domain)
	if err != nil {
		zap.L().Warn("api: load policies", zap.String("domain", domain), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"company":  company,
		"policies": policies,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
