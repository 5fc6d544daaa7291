package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dandihub/dandinotes/internal/domain"
)

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	dir := t.TempDir()
	return NewAuthService(
		filepath.Join(dir, "moderators.yaml"),
		filepath.Join(dir, "users.yaml"),
	)
}

func TestRegisterAndVerify(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)

	created, err := auth.Register(ctx, "ada@example.org", "hunter22")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !created {
		t.Fatalf("expected registration to succeed")
	}

	principal, err := auth.VerifyCredentials(ctx, "ada@example.org", "hunter22")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if principal == nil {
		t.Fatalf("expected a principal")
	}
	if principal.Role != domain.RoleUser || principal.Email != "ada@example.org" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
	if principal.Name != "ada" {
		t.Fatalf("default name should derive from email, got %q", principal.Name)
	}

	if p, _ := auth.VerifyCredentials(ctx, "ada@example.org", "wrong"); p != nil {
		t.Fatalf("wrong password should not verify")
	}
	if p, _ := auth.VerifyCredentials(ctx, "nobody@example.org", "hunter22"); p != nil {
		t.Fatalf("unknown account should not verify")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)

	if _, err := auth.Register(ctx, "ada@example.org", "hunter22"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	created, err := auth.Register(ctx, "ada@example.org", "other-password")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if created {
		t.Fatalf("duplicate email should be refused")
	}
}

func TestRegisterPersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	moderatorsPath := filepath.Join(dir, "moderators.yaml")
	usersPath := filepath.Join(dir, "users.yaml")

	first := NewAuthService(moderatorsPath, usersPath)
	if _, err := first.Register(ctx, "ada@example.org", "hunter22"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	second := NewAuthService(moderatorsPath, usersPath)
	principal, err := second.VerifyCredentials(ctx, "ada@example.org", "hunter22")
	if err != nil || principal == nil {
		t.Fatalf("credentials should survive a restart: %v", err)
	}

	raw, err := os.ReadFile(usersPath)
	if err != nil {
		t.Fatalf("reading users file: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("users file should not be empty")
	}
}

func TestModeratorPrecedence(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)

	if err := auth.AddModerator(ctx, "grace", "s3cret", "Grace Hopper", "grace@example.org"); err != nil {
		t.Fatalf("add moderator failed: %v", err)
	}

	principal, err := auth.VerifyCredentials(ctx, "grace", "s3cret")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if principal == nil || principal.Role != domain.RoleModerator {
		t.Fatalf("expected moderator principal, got %+v", principal)
	}
	if !principal.IsModerator() {
		t.Fatalf("IsModerator should hold")
	}
	if principal.Name != "Grace Hopper" || principal.Email != "grace@example.org" {
		t.Fatalf("unexpected principal: %+v", principal)
	}

	if err := auth.AddModerator(ctx, "grace", "x", "", ""); err == nil {
		t.Fatalf("duplicate moderator should be refused")
	}
}

func TestRegisterRefusesModeratorEmail(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)

	if err := auth.AddModerator(ctx, "grace@example.org", "s3cret", "Grace", ""); err != nil {
		t.Fatalf("add moderator failed: %v", err)
	}
	created, err := auth.Register(ctx, "grace@example.org", "hunter22")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if created {
		t.Fatalf("email held by a moderator should be refused")
	}
}
