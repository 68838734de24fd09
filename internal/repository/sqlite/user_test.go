package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/msomdec/design-gallery/internal/domain"
	"github.com/msomdec/design-gallery/internal/repository/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *sqlite.DB, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, DisplayName: email, PasswordHash: "hash", Role: role}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func TestUserRepository_Create(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	user := &domain.User{
		Email:        "test@example.com",
		DisplayName:  "Test User",
		PasswordHash: "hashedpw",
	}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if user.ID == 0 {
		t.Fatal("expected user ID to be set after create")
	}
	if user.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role user, got %q", user.Role)
	}
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "dup@example.com", domain.RoleUser)

	err := db.Users().Create(context.Background(), &domain.User{
		Email:        "dup@example.com",
		DisplayName:  "User 2",
		PasswordHash: "hash2",
	})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestUserRepository_Create_InvalidRole(t *testing.T) {
	db := newTestDB(t)

	err := db.Users().Create(context.Background(), &domain.User{
		Email:        "odd@example.com",
		DisplayName:  "Odd",
		PasswordHash: "hash",
		Role:         "superuser",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown role, got %v", err)
	}
}

func TestUserRepository_EmailIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "Mixed@Example.com", domain.RoleUser)

	found, err := db.Users().GetByEmail(context.Background(), "mixed@example.COM")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if found.ID != user.ID {
		t.Fatalf("expected id %d, got %d", user.ID, found.ID)
	}

	err = db.Users().Create(context.Background(), &domain.User{
		Email: "mixed@example.com", DisplayName: "Other", PasswordHash: "hash",
	})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail for differently cased email, got %v", err)
	}
}

func TestUserRepository_UpdateRole(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "promote@example.com", domain.RoleUser)
	ctx := context.Background()

	if err := db.Users().UpdateRole(ctx, user.ID, domain.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	found, err := db.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if found.Role != domain.RoleAdmin {
		t.Fatalf("expected admin, got %q", found.Role)
	}

	if err := db.Users().UpdateRole(ctx, user.ID, "root"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown role: expected ErrInvalidInput, got %v", err)
	}
	if err := db.Users().UpdateRole(ctx, 424242, domain.RoleAdmin); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing user: expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "byid@example.com", domain.RoleArchitect)

	found, err := db.Users().GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if found.Email != user.Email {
		t.Fatalf("expected email %q, got %q", user.Email, found.Email)
	}
	if found.Role != domain.RoleArchitect {
		t.Fatalf("expected role architect, got %q", found.Role)
	}
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), 99999)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "byemail@example.com", domain.RoleAdmin)

	found, err := db.Users().GetByEmail(context.Background(), "byemail@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if found.ID != user.ID {
		t.Fatalf("expected id %d, got %d", user.ID, found.ID)
	}
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByEmail(context.Background(), "nonexistent@example.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
