package users

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/streavmin/streavmin/internal/docstore"
	"github.com/streavmin/streavmin/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	ts := testutil.NewTestStore(t)
	return NewService(ts.Store, ts.Audit, ts.Logger)
}

func TestUsersService_BootstrapIdempotent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() second call error = %v", err)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	admins := 0
	for _, u := range all {
		if u.Username == "admin" {
			admins++
			if u.Role != RoleAdmin {
				t.Errorf("bootstrap admin role = %q, want %q", u.Role, RoleAdmin)
			}
			if u.Disabled {
				t.Error("bootstrap admin is disabled, want enabled")
			}
		}
	}
	if admins != 1 {
		t.Errorf("found %d admin accounts after double bootstrap, want exactly 1", admins)
	}
}

func TestUsersService_BootstrapKeepsExistingUsers(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if _, err := s.Create(ctx, "admin", CreateInput{Username: "viewer", Password: "pw", Role: RoleUser}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List() returned %d users, want 2", len(all))
	}
}

func TestUsersService_BootstrapRepairsMalformedDocument(t *testing.T) {
	ts := testutil.NewTestStore(t)
	s := NewService(ts.Store, ts.Audit, ts.Logger)
	ctx := context.Background()

	// A users document that is not a list gets replaced wholesale.
	if err := os.MkdirAll(filepath.Join(ts.Dir, "users"), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(ts.Dir, "users", "users.json"), []byte(`{"not":"a list"}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 || all[0].Username != "admin" {
		t.Errorf("List() = %+v, want single bootstrap administrator", all)
	}
}

func TestUsersService_BootstrapPropagatesCorruption(t *testing.T) {
	ts := testutil.NewTestStore(t)
	s := NewService(ts.Store, ts.Audit, ts.Logger)
	ctx := context.Background()

	// A truncated document may still hold recoverable accounts; it must
	// never be overwritten.
	path := filepath.Join(ts.Dir, "users", "users.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	broken := []byte(`{"users": [truncated`)
	if err := os.WriteFile(path, broken, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := s.Bootstrap(ctx); !errors.Is(err, docstore.ErrCorruptDocument) {
		t.Fatalf("Bootstrap() error = %v, want ErrCorruptDocument", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(after) != string(broken) {
		t.Errorf("users document rewritten to %q, want untouched", after)
	}
}

func TestUsersService_Create(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	user, err := s.Create(ctx, "admin", CreateInput{Username: "alice", Password: "secret", Role: RoleUser})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == "" {
		t.Error("Create() user.ID empty, want generated id")
	}
	if user.PassHash == "" || user.PassHash == "secret" {
		t.Error("Create() password not hashed")
	}

	// Duplicate username conflicts.
	if _, err := s.Create(ctx, "admin", CreateInput{Username: "alice", Password: "other"}); !errors.Is(err, ErrUserExists) {
		t.Errorf("Create() duplicate error = %v, want ErrUserExists", err)
	}
}

func TestUsersService_Create_InvalidInput(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "admin", CreateInput{Username: "", Password: "pw"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Create() empty username error = %v, want ErrInvalidInput", err)
	}
	if _, err := s.Create(ctx, "admin", CreateInput{Username: "bob", Password: ""}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Create() empty password error = %v, want ErrInvalidInput", err)
	}
	if _, err := s.Create(ctx, "admin", CreateInput{Username: "bob", Password: "pw", Role: "owner"}); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("Create() bad role error = %v, want ErrInvalidRole", err)
	}
}

func TestUsersService_Update(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "admin", CreateInput{Username: "alice", Password: "secret", Role: RoleUser})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := s.Update(ctx, "admin", "alice", Changes{
		Password: testutil.StringPtr("newsecret"),
		Role:     testutil.StringPtr(RoleAdmin),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Role != RoleAdmin {
		t.Errorf("Update() role = %q, want %q", updated.Role, RoleAdmin)
	}
	if updated.PassHash == created.PassHash {
		t.Error("Update() password hash unchanged, want re-hash")
	}

	updated, err = s.Update(ctx, "admin", "alice", Changes{Disabled: testutil.BoolPtr(true)})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.Disabled {
		t.Error("Update() disabled flag not applied")
	}

	if _, err := s.Update(ctx, "admin", "ghost", Changes{Role: testutil.StringPtr(RoleAdmin)}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Update() unknown user error = %v, want ErrUserNotFound", err)
	}
}

func TestUsersService_Authenticate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "admin", CreateInput{Username: "alice", Password: "secret", Role: RoleUser}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	user, err := s.Authenticate(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Authenticate() username = %q, want %q", user.Username, "alice")
	}

	// Wrong password and unknown user must be indistinguishable.
	_, wrongErr := s.Authenticate(ctx, "alice", "nope")
	_, unknownErr := s.Authenticate(ctx, "ghost", "nope")
	if !errors.Is(wrongErr, ErrInvalidCredentials) || !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Errorf("Authenticate() errors = (%v, %v), want ErrInvalidCredentials for both", wrongErr, unknownErr)
	}
}

func TestUsersService_Authenticate_DisabledAccount(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "admin", CreateInput{Username: "alice", Password: "secret", Role: RoleUser}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := s.Disable(ctx, "admin", "alice", true); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}

	// Correct password, disabled account: still no match.
	if _, err := s.Authenticate(ctx, "alice", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() disabled account error = %v, want ErrInvalidCredentials", err)
	}

	if _, err := s.Disable(ctx, "admin", "alice", false); err != nil {
		t.Fatalf("Disable(false) error = %v", err)
	}
	if _, err := s.Authenticate(ctx, "alice", "secret"); err != nil {
		t.Errorf("Authenticate() re-enabled account error = %v, want success", err)
	}
}

func TestUsersService_Sanitized(t *testing.T) {
	u := User{ID: "1", Username: "alice", Role: RoleUser, PassHash: "hash"}
	clean := u.Sanitized()
	if clean.PassHash != "" {
		t.Error("Sanitized() kept the credential hash")
	}
	if u.PassHash != "hash" {
		t.Error("Sanitized() mutated the original record")
	}
}
