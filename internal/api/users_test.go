package api

import (
	"net/http"
	"testing"
)

func TestLoginAndMe(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser(t, "alice", false)

	var login LoginResponse
	resp := ts.request(t, http.MethodPost, "/api/v1/login", "",
		LoginRequest{Username: "alice", Password: "secret"}, &login)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}
	if login.Token == "" {
		t.Fatal("expected a token")
	}

	ts.upload(t, login.Token, "docs/a.txt", "x")

	var me struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
		FileCount int `json:"fileCount"`
	}
	resp = ts.request(t, http.MethodGet, "/api/v1/me", login.Token, nil, &me)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: status %d", resp.StatusCode)
	}
	if me.User.Username != "alice" {
		t.Errorf("expected alice, got %q", me.User.Username)
	}
	// docs/ and docs/a.txt are both indexed
	if me.FileCount != 2 {
		t.Errorf("expected 2 index records, got %d", me.FileCount)
	}
}

func TestLoginBadPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser(t, "alice", false)

	resp := ts.request(t, http.MethodPost, "/api/v1/login", "",
		LoginRequest{Username: "alice", Password: "wrong"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAdminUserManagement(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.createUser(t, "root", true)

	var created struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	resp := ts.request(t, http.MethodPost, "/api/v1/admin/users",
		admin.Token, CreateUserRequest{Username: "bob", Password: "secret"}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}

	resp = ts.request(t, http.MethodDelete, "/api/v1/admin/users/"+created.ID,
		admin.Token, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}

	resp = ts.request(t, http.MethodDelete, "/api/v1/admin/users/"+created.ID,
		admin.Token, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for deleted user, got %d", resp.StatusCode)
	}
}

func TestAdminRoutesForbidNonAdmins(t *testing.T) {
	ts := newTestServer(t)
	user := ts.createUser(t, "alice", false)

	resp := ts.request(t, http.MethodGet, "/api/v1/admin/users", user.Token, nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
