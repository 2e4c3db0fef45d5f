package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stratus/internal/service"
	"stratus/internal/utils"
)

type FileHandler struct {
	files *service.FileService
}

func NewFileHandler(files *service.FileService) *FileHandler {
	return &FileHandler{files: files}
}

func (h *FileHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireUser)
	r.Get("/list", h.List)
	r.Get("/stat", h.Stat)
	r.Get("/cat", h.Cat)
	r.Put("/upload", h.Upload)
	r.Post("/mkdir", h.Mkdir)
	r.Post("/delete", h.Delete)
	return r
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	relPath, err := utils.CleanRelPath(r.URL.Query().Get("path"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.files.List(r.Context(), user.ID, relPath)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ListResponse{Data: records})
}

func (h *FileHandler) Stat(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	relPath, err := utils.CleanRelPath(r.URL.Query().Get("path"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.files.Stat(r.Context(), user.ID, relPath)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (h *FileHandler) Cat(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	relPath, err := utils.CleanRelPath(r.URL.Query().Get("path"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, rec, err := h.files.Download(r.Context(), user.ID, relPath)
	if err != nil {
		respondError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", rec.ContentType)
	// ServeContent handles Range requests
	http.ServeContent(w, r, rec.Name, rec.UpdatedAt, f)
}

func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	relPath, err := utils.CleanRelPath(r.URL.Query().Get("path"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if relPath == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	rec, err := h.files.Upload(r.Context(), user.ID, relPath, r.Body)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (h *FileHandler) Mkdir(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	var req MkdirRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	relPath, err := utils.CleanRelPath(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.files.Mkdir(r.Context(), user.ID, relPath)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	relPath, err := utils.CleanRelPath(req.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.files.Delete(r.Context(), user.ID, relPath); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
