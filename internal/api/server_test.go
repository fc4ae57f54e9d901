package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/streavmin/streavmin/internal/audit"
	"github.com/streavmin/streavmin/internal/auth"
	"github.com/streavmin/streavmin/internal/catalog"
	"github.com/streavmin/streavmin/internal/config"
	"github.com/streavmin/streavmin/internal/docstore"
	"github.com/streavmin/streavmin/internal/scheduler"
	"github.com/streavmin/streavmin/internal/testutil"
	"github.com/streavmin/streavmin/internal/users"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	logger := testutil.NewTestLogger(t)

	store := docstore.New(dir, logger)
	auditLog := audit.New(dir, logger)
	catalogService := catalog.NewService(store, auditLog, logger)
	userService := users.NewService(store, auditLog, logger)

	if err := userService.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	authService, err := auth.NewService(userService, "test-secret", logger)
	if err != nil {
		t.Fatalf("auth.NewService() error = %v", err)
	}

	// Triggered tasks run past the test body, so the scheduler side must
	// not log through the t-bound writer.
	sched, err := scheduler.New(testutil.NopLogger())
	if err != nil {
		t.Fatalf("scheduler.New() error = %v", err)
	}
	err = sched.RegisterTask(scheduler.TaskConfig{
		ID:   "catalog-lint",
		Name: "Catalog integrity check",
		Cron: "0 3 * * *",
		Func: func(ctx context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("RegisterTask() error = %v", err)
	}

	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	return NewServer(cfg, store, auditLog, catalogService, userService, authService, sched, logger)
}

func doJSON(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func loginAdmin(t *testing.T, s *Server) string {
	t.Helper()

	rec := doJSON(t, s, http.MethodPost, "/api/auth/login", "", `{"username":"admin","password":"admin123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp auth.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	return resp.Token
}

func TestServer_HealthCheck(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestServer_AdminRequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/admin/movies", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated admin status = %d, want 401", rec.Code)
	}
}

func TestServer_MovieLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := loginAdmin(t, s)

	body := `{"title":"Heat","year":1995,"duration":170,"streamUrl":"https://cdn.example.com/heat.m3u8","published":true}`
	rec := doJSON(t, s, http.MethodPost, "/api/admin/movies", token, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var stored catalog.Movie
	if err := json.Unmarshal(rec.Body.Bytes(), &stored); err != nil {
		t.Fatalf("failed to decode movie: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("stored movie has no id")
	}

	// Published movie shows up in the public catalog without auth.
	rec = doJSON(t, s, http.MethodGet, "/api/catalog", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog status = %d, want 200", rec.Code)
	}
	var pub catalog.PublicCatalog
	if err := json.Unmarshal(rec.Body.Bytes(), &pub); err != nil {
		t.Fatalf("failed to decode catalog: %v", err)
	}
	if len(pub.Movies) != 1 {
		t.Errorf("public catalog movies = %d, want 1", len(pub.Movies))
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/admin/movies/"+stored.ID, token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/admin/movies/"+stored.ID, token, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestServer_ValidationErrorShape(t *testing.T) {
	s := newTestServer(t)
	token := loginAdmin(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/admin/movies", token, `{"title":"Broken"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid upsert status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_UserManagement(t *testing.T) {
	s := newTestServer(t)
	token := loginAdmin(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/admin/users", token, `{"username":"alice","password":"pw","role":"user"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "passHash") {
		t.Error("create user response leaks the credential hash")
	}

	rec = doJSON(t, s, http.MethodPost, "/api/admin/users", token, `{"username":"alice","password":"pw"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate user status = %d, want 409", rec.Code)
	}

	// Non-admins cannot reach the admin surface.
	rec = doJSON(t, s, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("alice login status = %d, want 200", rec.Code)
	}
	var resp auth.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/admin/movies", resp.Token, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin admin-route status = %d, want 403", rec.Code)
	}
}

func TestServer_RunTask(t *testing.T) {
	s := newTestServer(t)
	token := loginAdmin(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/admin/tasks/catalog-lint/run", token, "")
	if rec.Code != http.StatusAccepted {
		t.Errorf("run task status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/admin/tasks/nope/run", token, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown task status = %d, want 404", rec.Code)
	}
}

func TestServer_AuditTail(t *testing.T) {
	s := newTestServer(t)
	token := loginAdmin(t, s)

	body := `{"title":"Heat","year":1995,"duration":170,"streamUrl":"https://cdn.example.com/heat.m3u8"}`
	if rec := doJSON(t, s, http.MethodPost, "/api/admin/movies", token, body); rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d, want 200", rec.Code)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/admin/audit?limit=10", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("audit status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var entries []audit.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("failed to decode audit entries: %v", err)
	}
	if len(entries) == 0 {
		t.Error("audit tail is empty after a mutation")
	}
	if entries[len(entries)-1].Actor != "admin" {
		t.Errorf("audit actor = %q, want %q", entries[len(entries)-1].Actor, "admin")
	}
}
