package service_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/msomdec/design-gallery/internal/domain"
	"github.com/msomdec/design-gallery/internal/repository/sqlite"
	"github.com/msomdec/design-gallery/internal/service"
)

func createUser(t *testing.T, db *sqlite.DB, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, DisplayName: email, PasswordHash: "hash", Role: role}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// seedDesign creates a design whose building photos are stored blobs keyed
// by the given names.
func seedDesign(t *testing.T, db *sqlite.DB, owner *domain.User, building ...string) *domain.Design {
	t.Helper()
	ctx := context.Background()
	d := &domain.Design{ArchitectID: owner.ID, Title: "Courtyard House"}
	for _, key := range building {
		if err := db.FileStore().Save(ctx, key, []byte("bytes of "+key)); err != nil {
			t.Fatalf("save blob: %v", err)
		}
		d.BuildingPhotos = append(d.BuildingPhotos, domain.Photo{StorageKey: key})
	}
	if err := db.Designs().Create(ctx, d); err != nil {
		t.Fatalf("create design: %v", err)
	}
	return d
}

func image(name string) domain.PhotoFile {
	return domain.PhotoFile{Name: name, ContentType: "image/jpeg", Data: []byte("jpeg " + name)}
}

func blobCount(t *testing.T, db *sqlite.DB) int {
	t.Helper()
	var n int
	if err := db.SqlDB.QueryRow("SELECT COUNT(*) FROM file_blobs").Scan(&n); err != nil {
		t.Fatalf("count blobs: %v", err)
	}
	return n
}

func TestDesignService_UpdateDesign_AppliesAgainstOriginalPositions(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewDesignService(db.Designs(), db.FileStore())
	owner := createUser(t, db, "arch@example.com", domain.RoleArchitect)
	d := seedDesign(t, db, owner, "a", "b", "c")
	ctx := context.Background()

	title := "Courtyard House II"
	got, err := svc.UpdateDesign(ctx, d.ID, domain.DesignUpdate{
		Fields: domain.DesignFields{Title: &title},
		Photos: map[domain.PhotoCategory]domain.PhotoChanges{
			domain.PhotoCategoryBuilding: {
				Files:   []domain.PhotoFile{image("x"), image("y")},
				Indices: []int{2, domain.AppendIndex},
				Deleted: []int{0},
			},
		},
	})
	if err != nil {
		t.Fatalf("UpdateDesign: %v", err)
	}
	if got.Title != title {
		t.Fatalf("expected title %q, got %q", title, got.Title)
	}
	if len(got.BuildingPhotos) != 3 || got.BuildingPhotos[0].StorageKey != "b" {
		t.Fatalf("expected [b x y], got %+v", got.BuildingPhotos)
	}

	replacement, err := db.FileStore().Get(ctx, got.BuildingPhotos[1].StorageKey)
	if err != nil || string(replacement) != "jpeg x" {
		t.Fatalf("expected replacement blob for x, got %q, %v", replacement, err)
	}
	appended, err := db.FileStore().Get(ctx, got.BuildingPhotos[2].StorageKey)
	if err != nil || string(appended) != "jpeg y" {
		t.Fatalf("expected appended blob for y, got %q, %v", appended, err)
	}

	for _, key := range []string{"a", "c"} {
		if _, err := db.FileStore().Get(ctx, key); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected orphaned blob %s deleted, got %v", key, err)
		}
	}
	if n := blobCount(t, db); n != 3 {
		t.Fatalf("expected 3 blobs, got %d", n)
	}

	stored, err := svc.GetDesign(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDesign: %v", err)
	}
	if !slices.Equal(stored.PhotoURLs(domain.PhotoCategoryBuilding), got.PhotoURLs(domain.PhotoCategoryBuilding)) {
		t.Fatalf("persisted photos differ: %v vs %v",
			stored.PhotoURLs(domain.PhotoCategoryBuilding), got.PhotoURLs(domain.PhotoCategoryBuilding))
	}
}

func TestDesignService_UpdateDesign_RejectsInvalidChanges(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewDesignService(db.Designs(), db.FileStore())
	owner := createUser(t, db, "arch@example.com", domain.RoleArchitect)
	d := seedDesign(t, db, owner, "a", "b")
	ctx := context.Background()

	tests := []struct {
		name    string
		changes domain.PhotoChanges
	}{
		{"length mismatch", domain.PhotoChanges{Files: []domain.PhotoFile{image("x")}, Indices: []int{0, 1}}},
		{"replace out of range", domain.PhotoChanges{Files: []domain.PhotoFile{image("x")}, Indices: []int{5}}},
		{"delete out of range", domain.PhotoChanges{Deleted: []int{2}}},
		{"replace and delete", domain.PhotoChanges{Files: []domain.PhotoFile{image("x")}, Indices: []int{1}, Deleted: []int{1}}},
		{"replace twice", domain.PhotoChanges{Files: []domain.PhotoFile{image("x"), image("y")}, Indices: []int{0, 0}}},
		{"not an image", domain.PhotoChanges{
			Files:   []domain.PhotoFile{image("x"), {Name: "notes.txt", ContentType: "text/plain"}},
			Indices: []int{domain.AppendIndex, domain.AppendIndex},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateDesign(ctx, d.ID, domain.DesignUpdate{
				Photos: map[domain.PhotoCategory]domain.PhotoChanges{domain.PhotoCategoryBuilding: tc.changes},
			})
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if n := blobCount(t, db); n != 2 {
				t.Fatalf("expected no new blobs, got %d", n)
			}
		})
	}

	stored, err := svc.GetDesign(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDesign: %v", err)
	}
	if len(stored.BuildingPhotos) != 2 {
		t.Fatalf("expected photos untouched, got %+v", stored.BuildingPhotos)
	}
}

func TestDesignService_UpdateDesign_CategoriesIndependent(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewDesignService(db.Designs(), db.FileStore())
	owner := createUser(t, db, "arch@example.com", domain.RoleArchitect)
	d := seedDesign(t, db, owner, "a")

	got, err := svc.UpdateDesign(context.Background(), d.ID, domain.DesignUpdate{
		Photos: map[domain.PhotoCategory]domain.PhotoChanges{
			domain.PhotoCategoryFloorPlan: {
				Files:   []domain.PhotoFile{image("plan-1"), image("plan-2")},
				Indices: []int{domain.AppendIndex, domain.AppendIndex},
			},
		},
	})
	if err != nil {
		t.Fatalf("UpdateDesign: %v", err)
	}
	if len(got.BuildingPhotos) != 1 || got.BuildingPhotos[0].StorageKey != "a" {
		t.Fatalf("building photos changed: %+v", got.BuildingPhotos)
	}
	if len(got.FloorPlanPhotos) != 2 {
		t.Fatalf("expected 2 floor plans, got %+v", got.FloorPlanPhotos)
	}
}

func TestDesignService_CreateAndAuthorize(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewDesignService(db.Designs(), db.FileStore())
	ctx := context.Background()

	architect := createUser(t, db, "arch@example.com", domain.RoleArchitect)
	rival := createUser(t, db, "rival@example.com", domain.RoleArchitect)
	admin := createUser(t, db, "admin@example.com", domain.RoleAdmin)
	visitor := createUser(t, db, "user@example.com", domain.RoleUser)

	title := "  Pavilion  "
	if _, err := svc.Create(ctx, visitor, domain.DesignFields{Title: &title}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("user create: expected ErrForbidden, got %v", err)
	}
	blank := " "
	if _, err := svc.Create(ctx, architect, domain.DesignFields{Title: &blank}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("blank title: expected ErrInvalidInput, got %v", err)
	}

	d, err := svc.Create(ctx, architect, domain.DesignFields{Title: &title})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.Title != "Pavilion" || d.ArchitectID != architect.ID {
		t.Fatalf("unexpected design %+v", d)
	}

	tests := []struct {
		name    string
		user    *domain.User
		wantErr error
	}{
		{"owner", architect, nil},
		{"admin", admin, nil},
		{"other architect", rival, domain.ErrForbidden},
		{"plain user", visitor, domain.ErrForbidden},
		{"anonymous", nil, domain.ErrForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Authorize(ctx, tc.user, d.ID)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestDesignService_Delete(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewDesignService(db.Designs(), db.FileStore())
	owner := createUser(t, db, "arch@example.com", domain.RoleArchitect)
	d := seedDesign(t, db, owner, "a", "b")
	ctx := context.Background()

	if err := svc.Delete(ctx, owner, d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetDesign(ctx, d.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := blobCount(t, db); n != 0 {
		t.Fatalf("expected blobs removed, got %d", n)
	}
}
