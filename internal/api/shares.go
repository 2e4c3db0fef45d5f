package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stratus/internal/logger"
	"stratus/internal/service"
	"stratus/internal/utils"
)

type ShareHandler struct {
	shares *service.ShareService
	files  *service.FileService
}

func NewShareHandler(shares *service.ShareService, files *service.FileService) *ShareHandler {
	return &ShareHandler{shares: shares, files: files}
}

func (h *ShareHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireUser)
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Revoke)
	return r
}

func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	var req CreateShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	relPath, err := utils.CleanRelPath(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			http.Error(w, "expiresAt must be RFC 3339", http.StatusBadRequest)
			return
		}
		expiresAt = &t
	}

	link, err := h.shares.Create(r.Context(), user.ID, relPath, expiresAt)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, link)
}

func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	links, err := h.shares.List(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ListResponse{Data: links})
}

func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	if err := h.shares.Revoke(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Download serves GET /s/{token}: the unauthenticated public side of a
// share link.
func (h *ShareHandler) Download(w http.ResponseWriter, r *http.Request) {
	link, rec, err := h.shares.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondError(w, err)
		return
	}

	f, rec, err := h.files.Download(r.Context(), rec.OwnerID, rec.Path)
	if err != nil {
		respondError(w, err)
		return
	}
	defer f.Close()

	if err := h.shares.RecordDownload(r.Context(), link.ID); err != nil {
		logger.L.Warn("recording share download failed", zap.Error(err))
	}

	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Name))
	http.ServeContent(w, r, rec.Name, rec.UpdatedAt, f)
}
