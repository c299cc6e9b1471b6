package config

import (
	"context"
	"errors"
	"testing"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("") // in-memory
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newAdmin(email string) *model.Admin {
	return &model.Admin{
		RoleID:       model.DefaultRoleID,
		Name:         "bigcat",
		PasswordHash: "ABCDEF",
		Email:        email,
		Phone:        "13812345678",
		Enabled:      model.AdminPending,
	}
}

// ---------------------------------------------------------------------------
// Admin CRUD
// ---------------------------------------------------------------------------

func TestAdminCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	admin := newAdmin("bigcat@example.com")
	if err := s.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if admin.ID == 0 {
		t.Fatal("expected non-zero ID after create")
	}

	got, err := s.GetAdmin(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetAdmin: %v", err)
	}
	if got.Email != "bigcat@example.com" {
		t.Errorf("got email %q, want %q", got.Email, "bigcat@example.com")
	}
	if got.PasswordHash != "ABCDEF" {
		t.Errorf("got password hash %q, want %q", got.PasswordHash, "ABCDEF")
	}
	if got.IsEnabled() {
		t.Error("new admin should be pending")
	}

	byEmail, err := s.GetAdminByEmail(ctx, "bigcat@example.com")
	if err != nil {
		t.Fatalf("GetAdminByEmail: %v", err)
	}
	if byEmail.ID != admin.ID {
		t.Errorf("got ID %d, want %d", byEmail.ID, admin.ID)
	}
}

func TestAdminDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateAdmin(ctx, newAdmin("dup@example.com")); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	err := s.CreateAdmin(ctx, newAdmin("dup@example.com"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestAdminNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetAdmin(ctx, 999); err != ErrNotFound {
		t.Errorf("GetAdmin: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetAdminByEmail(ctx, "nobody@example.com"); err != ErrNotFound {
		t.Errorf("GetAdminByEmail: expected ErrNotFound, got %v", err)
	}
	if err := s.SetAdminEnabled(ctx, 999, model.AdminEnabled); err != ErrNotFound {
		t.Errorf("SetAdminEnabled: expected ErrNotFound, got %v", err)
	}
}

func TestSetAdminEnabled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	admin := newAdmin("enable@example.com")
	s.CreateAdmin(ctx, admin)

	if err := s.SetAdminEnabled(ctx, admin.ID, model.AdminEnabled); err != nil {
		t.Fatalf("SetAdminEnabled: %v", err)
	}
	got, _ := s.GetAdmin(ctx, admin.ID)
	if !got.IsEnabled() {
		t.Error("expected admin to be enabled")
	}

	// Idempotent.
	if err := s.SetAdminEnabled(ctx, admin.ID, model.AdminEnabled); err != nil {
		t.Fatalf("SetAdminEnabled twice: %v", err)
	}
}

func TestDeleteAdmin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	admin := newAdmin("gone@example.com")
	if err := s.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if err := s.DeleteAdmin(ctx, admin.ID); err != nil {
		t.Fatalf("DeleteAdmin: %v", err)
	}
	if _, err := s.GetAdmin(ctx, admin.ID); err != ErrNotFound {
		t.Errorf("GetAdmin after delete: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteAdmin(ctx, admin.ID); err != ErrNotFound {
		t.Errorf("DeleteAdmin twice: expected ErrNotFound, got %v", err)
	}

	// The email is free again.
	if err := s.CreateAdmin(ctx, newAdmin("gone@example.com")); err != nil {
		t.Errorf("CreateAdmin after delete: %v", err)
	}
}

func TestListAdmins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	admins, err := s.ListAdmins(ctx)
	if err != nil {
		t.Fatalf("ListAdmins: %v", err)
	}
	if len(admins) != 0 {
		t.Fatalf("expected empty list, got %d", len(admins))
	}

	s.CreateAdmin(ctx, newAdmin("a@example.com"))
	s.CreateAdmin(ctx, newAdmin("b@example.com"))

	admins, err = s.ListAdmins(ctx)
	if err != nil {
		t.Fatalf("ListAdmins: %v", err)
	}
	if len(admins) != 2 {
		t.Fatalf("expected 2 admins, got %d", len(admins))
	}
	if admins[0].Email != "a@example.com" {
		t.Errorf("expected id order, got %q first", admins[0].Email)
	}
}

func TestStorePersistsInDataDir(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	admin := newAdmin("persist@example.com")
	if err := s.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	s.Close()

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.GetAdmin(ctx, admin.ID); err != nil {
		t.Errorf("admin lost across reopen: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), DatabaseConfig{Driver: "oracle"}, "")
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
