package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	apperrors "stratus/internal/errors"
	"stratus/internal/logger"
	"stratus/internal/model"
	"stratus/internal/service"
)

type ctxKey int

const userKey ctxKey = 0

// UserFrom returns the authenticated user, or nil for requests admitted via
// the configured admin token.
func UserFrom(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}

type Router struct {
	chi        *chi.Mux
	users      *service.UserService
	adminToken string
}

func NewRouter(users *service.UserService, adminToken string) *Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(logger.Middleware(logger.L))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	return &Router{
		chi:        r,
		users:      users,
		adminToken: adminToken,
	}
}

func (rt *Router) Handler() http.Handler {
	return rt.chi
}

func (rt *Router) MountV1(handler http.Handler) {
	rt.chi.Mount("/api/v1", handler)
}

// MountPublic registers unauthenticated routes (login, share downloads).
func (rt *Router) MountPublic(fn func(r chi.Router)) {
	rt.chi.Group(fn)
}

func (rt *Router) token(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	// Query param fallback for SSE and WebSocket clients
	return r.URL.Query().Get("token")
}

// Auth resolves the bearer token to a user and stores it on the request
// context. The configured admin token is accepted without a user record.
func (rt *Router) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := rt.token(r)
		if tok == "" {
			respondError(w, apperrors.New(apperrors.CodeUnauthorized, "missing token"))
			return
		}

		if rt.adminToken != "" && tok == rt.adminToken {
			next.ServeHTTP(w, r)
			return
		}

		user, err := rt.users.Authenticate(r.Context(), tok)
		if err != nil {
			respondError(w, err)
			return
		}
		if user == nil {
			respondError(w, apperrors.New(apperrors.CodeUnauthorized, "invalid token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// RequireAdmin admits users with the admin flag or callers holding the
// admin token (no user on context).
func (rt *Router) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFrom(r.Context())
		if user != nil && !user.IsAdmin {
			respondError(w, apperrors.New(apperrors.CodeForbidden, "admin privileges required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects admin-token callers on routes that need a concrete
// user (file and share ownership).
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFrom(r.Context()) == nil {
			respondError(w, apperrors.New(apperrors.CodeUnauthorized, "a user token is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
