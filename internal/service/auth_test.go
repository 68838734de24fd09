package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/design-gallery/internal/domain"
	"github.com/msomdec/design-gallery/internal/repository/sqlite"
	"github.com/msomdec/design-gallery/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestAuthService(t *testing.T) (*service.AuthService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	// Cost 4 keeps bcrypt fast in tests.
	return service.NewAuthService(db.Users(), testJWTSecret, 4), db
}

func TestAuthService_Register_Roles(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		email   string
		role    domain.Role
		want    domain.Role
		wantErr error
	}{
		{"default role", "plain@example.com", "", domain.RoleUser, nil},
		{"architect", "arch@example.com", domain.RoleArchitect, domain.RoleArchitect, nil},
		{"admin is not self-service", "admin@example.com", domain.RoleAdmin, "", domain.ErrInvalidInput},
		{"unknown role", "odd@example.com", domain.Role("owner"), "", domain.ErrInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user, err := auth.Register(ctx, tc.email, "Name", "password123", "password123", tc.role)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Register: %v", err)
			}
			if user.ID == 0 || user.Role != tc.want {
				t.Fatalf("unexpected user %+v", user)
			}
		})
	}
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name, email, display, password, confirm string
	}{
		{"empty email", "", "Name", "password123", "password123"},
		{"empty display name", "a@b.com", "", "password123", "password123"},
		{"short password", "a@b.com", "Name", "short", "short"},
		{"mismatch", "a@b.com", "Name", "password123", "password456"},
		{"malformed email", "not-an-email", "Name", "password123", "password123"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tc.email, tc.display, tc.password, tc.confirm, domain.RoleUser)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "dup@example.com", "One", "password123", "password123", domain.RoleUser); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := auth.Register(ctx, "dup@example.com", "Two", "password456", "password456", domain.RoleArchitect)
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "login@example.com", "Login", "password123", "password123", domain.RoleArchitect)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := auth.Login(ctx, "login@example.com", "wrongpassword"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("wrong password: expected ErrUnauthorized, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("unknown email: expected ErrUnauthorized, got %v", err)
	}

	// Emails are matched case-insensitively.
	loggedIn, token, err := auth.Login(ctx, " Login@Example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("expected logged in user %d, got %d", user.ID, loggedIn.ID)
	}
	userID, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("expected user ID %d, got %d", user.ID, userID)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("parse claims: %v", err)
	}
	if claims["role"] != "architect" {
		t.Fatalf("expected role claim architect, got %v", claims["role"])
	}
}

func TestAuthService_ValidateToken_Rejects(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "t@example.com", "T", "password123", "password123", domain.RoleUser); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, token, err := auth.Login(ctx, "t@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	other := service.NewAuthService(nil, "a-completely-different-secret-value", 4)

	tests := []struct {
		name  string
		auth  *service.AuthService
		token string
	}{
		{"garbage", auth, "not-a-valid-jwt"},
		{"tampered signature", auth, token[:len(token)-5] + "XXXXX"},
		{"wrong secret", other, token},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.auth.ValidateToken(tc.token); !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestAuthService_GrantRole(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "boss@example.com", "Boss", "password123", "password123", domain.RoleUser); err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, err := auth.GrantRole(ctx, "BOSS@example.com", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("GrantRole: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("expected admin, got %q", user.Role)
	}
	stored, err := auth.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if stored.Role != domain.RoleAdmin {
		t.Fatalf("expected stored role admin, got %q", stored.Role)
	}

	if _, err := auth.GrantRole(ctx, "ghost@example.com", domain.RoleAdmin); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown email: expected ErrNotFound, got %v", err)
	}
}
