package api

import (
	"encoding/json"
	"net/http"

	apperrors "stratus/internal/errors"
)

type ListResponse struct {
	Data interface{} `json:"data"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

type MeResponse struct {
	User      any `json:"user"`
	FileCount int `json:"fileCount"`
}

// Files
type MkdirRequest struct {
	Path string `json:"path"`
}

type DeleteRequest struct {
	Path string `json:"path"`
}

// Shares
type CreateShareRequest struct {
	Path      string `json:"path"`
	ExpiresAt string `json:"expiresAt"` // RFC 3339, optional
}

// Users
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Index rebuild
type RebuildRequest struct {
	Mode   string `json:"mode"`
	UserID string `json:"user_id"`
	DryRun bool   `json:"dry_run"`
	Force  bool   `json:"force"`
}

type RebuildResponse struct {
	InvocationID string `json:"invocation_id"`
	Status       string `json:"status"`
	Result       any    `json:"result,omitempty"`
	Error        string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// respondError maps an application error to its HTTP status and writes the
// JSON error envelope.
func respondError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	respondJSON(w, statusFor(code), ErrorResponse{Error: ErrorBody{
		Code:    string(code),
		Message: err.Error(),
	}})
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.CodeNotFound, apperrors.CodeUserNotFound:
		return http.StatusNotFound
	case apperrors.CodeValidationFailed, apperrors.CodeInvalidMode, apperrors.CodeForceRequired:
		return http.StatusBadRequest
	case apperrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.CodeForbidden:
		return http.StatusForbidden
	case apperrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
