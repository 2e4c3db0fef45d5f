package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "stratus/internal/errors"
	"stratus/internal/model"
	"stratus/internal/service"
)

type AdminHandler struct {
	reconcile *service.ReconcileService
}

func NewAdminHandler(reconcile *service.ReconcileService) *AdminHandler {
	return &AdminHandler{reconcile: reconcile}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/rebuild", h.Rebuild)
	r.Get("/runs", h.ListRuns)
	r.Get("/runs/{id}", h.GetRun)
	return r
}

// Rebuild triggers a reconciliation pass and blocks until it finishes.
// Structural errors (bad mode, missing force) are rejected with 400 before
// the engine touches anything.
func (h *AdminHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	var req RebuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	run, err := h.reconcile.Trigger(r.Context(), model.ReconcileOptions{
		Mode:   model.ReconcileMode(req.Mode),
		UserID: req.UserID,
		DryRun: req.DryRun,
		Force:  req.Force,
	})
	if err != nil && run == nil {
		respondError(w, err)
		return
	}

	resp := RebuildResponse{
		InvocationID: run.ID,
		Status:       string(run.Status),
		Result:       run.Stats,
		Error:        run.Error,
	}
	status := http.StatusOK
	if run.Status == model.RunFailed {
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, resp)
}

func (h *AdminHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.reconcile.ListRuns(limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ListResponse{Data: runs})
}

func (h *AdminHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.reconcile.GetRun(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	if run == nil {
		respondError(w, apperrors.New(apperrors.CodeNotFound, "no such run"))
		return
	}
	respondJSON(w, http.StatusOK, run)
}
