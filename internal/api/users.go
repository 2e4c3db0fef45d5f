package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "stratus/internal/errors"
	"stratus/internal/service"
)

type UserHandler struct {
	users *service.UserService
	files *service.FileService
}

func NewUserHandler(users *service.UserService, files *service.FileService) *UserHandler {
	return &UserHandler{users: users, files: files}
}

// Routes are the admin-only user management endpoints.
func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
	return r
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ListResponse{Data: users})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.users.Create(r.Context(), req.Username, req.Password, req.IsAdmin)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated caller and how many index records it holds.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	if user == nil {
		respondError(w, apperrors.New(apperrors.CodeUnauthorized, "a user token is required"))
		return
	}

	count, err := h.files.Count(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, MeResponse{User: user, FileCount: count})
}

// Login exchanges credentials for the user's bearer token. Unauthenticated.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, LoginResponse{Token: user.Token, User: user})
}
