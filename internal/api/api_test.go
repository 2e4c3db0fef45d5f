package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"stratus/internal/event"
	"stratus/internal/model"
	"stratus/internal/reconcile"
	"stratus/internal/service"
	"stratus/internal/storage"
	"stratus/internal/store"
)

const testAdminToken = "test-admin-token"

type testServer struct {
	srv     *httptest.Server
	users   *service.UserService
	files   *service.FileService
	backend *storage.LocalBackend
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	runs, err := store.NewRunDB(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create run db: %v", err)
	}
	t.Cleanup(func() { runs.Close() })

	backend, err := storage.NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}

	bus := event.NewBus()
	locks := store.NewKeyedMutex()
	db := s.GetDB()
	ur := store.NewUserRepo(db)
	fr := store.NewFileRepo(db)
	shr := store.NewShareRepo(db)

	us := service.NewUserService(ur)
	fs := service.NewFileService(backend, fr, shr, locks, bus)
	ss := service.NewShareService(shr, fr, bus)
	rs := service.NewReconcileService(
		reconcile.New(reconcile.NewScanner(backend.Root()), ur, fr, shr, locks, 2),
		runs, bus)

	router := NewRouter(us, testAdminToken)

	uh := NewUserHandler(us, fs)
	fh := NewFileHandler(fs)
	sh := NewShareHandler(ss, fs)
	ah := NewAdminHandler(rs)
	eh := NewEventHandler(bus)

	v1 := chi.NewRouter()
	v1.Use(router.Auth)
	v1.Mount("/files", fh.Routes())
	v1.Mount("/shares", sh.Routes())
	v1.Get("/me", uh.Me)
	v1.Group(func(r chi.Router) {
		r.Use(router.RequireAdmin)
		r.Mount("/admin/users", uh.Routes())
		r.Mount("/admin/index", ah.Routes())
		r.Mount("/events", eh.Routes())
	})
	router.MountV1(v1)
	router.MountPublic(func(r chi.Router) {
		r.Post("/api/v1/login", uh.Login)
		r.Get("/s/{token}", sh.Download)
	})

	srv := httptest.NewServer(router.Handler())
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, users: us, files: fs, backend: backend}
}

func (ts *testServer) createUser(t *testing.T, username string, admin bool) *model.User {
	t.Helper()
	u, err := ts.users.Create(context.Background(), username, "secret", admin)
	if err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}

// request runs an HTTP call with a bearer token and decodes the JSON
// response into out when out is non-nil.
func (ts *testServer) request(t *testing.T, method, path, token string, body, out any) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, reqBody)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
	return resp
}

func (ts *testServer) upload(t *testing.T, token, path, content string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPut,
		ts.srv.URL+"/api/v1/files/upload?path="+path, strings.NewReader(content))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload %s: status %d", path, resp.StatusCode)
	}
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	return body.Error.Code
}
