package sqlite_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/msomdec/design-gallery/internal/domain"
)

func photos(keys ...string) []domain.Photo {
	var out []domain.Photo
	for _, k := range keys {
		out = append(out, domain.Photo{StorageKey: k})
	}
	return out
}

func storageKeys(ps []domain.Photo) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.StorageKey)
	}
	return out
}

func TestDesignRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	architect := createUser(t, db, "arch@example.com", domain.RoleArchitect)
	ctx := context.Background()

	d := &domain.Design{
		ArchitectID:     architect.ID,
		Title:           "Courtyard House",
		Location:        "Lisbon",
		AreaSqm:         182.5,
		BuildingPhotos:  photos("b0", "b1", "b2"),
		FloorPlanPhotos: photos("f0"),
	}
	if err := db.Designs().Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.ID == 0 {
		t.Fatal("expected design ID to be set")
	}
	if d.BuildingPhotos[0].URL != "/photos/b0" {
		t.Fatalf("expected URL to be filled, got %q", d.BuildingPhotos[0].URL)
	}

	got, err := db.Designs().GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Courtyard House" || got.AreaSqm != 182.5 {
		t.Fatalf("unexpected design %+v", got)
	}
	if keys := storageKeys(got.BuildingPhotos); !slices.Equal(keys, []string{"b0", "b1", "b2"}) {
		t.Fatalf("expected building photos in order, got %v", keys)
	}
	if keys := storageKeys(got.FloorPlanPhotos); !slices.Equal(keys, []string{"f0"}) {
		t.Fatalf("expected floor plan photos, got %v", keys)
	}
}

func TestDesignRepository_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Designs().GetByID(context.Background(), 424242)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDesignRepository_UpdateReplacesPhotoLists(t *testing.T) {
	db := newTestDB(t)
	architect := createUser(t, db, "arch@example.com", domain.RoleArchitect)
	ctx := context.Background()

	d := &domain.Design{ArchitectID: architect.ID, Title: "Old", BuildingPhotos: photos("a", "b", "c")}
	if err := db.Designs().Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}

	d.Title = "New"
	d.BuildingPhotos = photos("c", "x")
	d.FloorPlanPhotos = photos("plan")
	if err := db.Designs().Update(ctx, d); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := db.Designs().GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "New" {
		t.Fatalf("expected title New, got %q", got.Title)
	}
	if keys := storageKeys(got.BuildingPhotos); !slices.Equal(keys, []string{"c", "x"}) {
		t.Fatalf("expected [c x], got %v", keys)
	}
	if keys := storageKeys(got.FloorPlanPhotos); !slices.Equal(keys, []string{"plan"}) {
		t.Fatalf("expected [plan], got %v", keys)
	}
}

func TestDesignRepository_Update_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Designs().Update(context.Background(), &domain.Design{ID: 999, Title: "x"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDesignRepository_ListAndDelete(t *testing.T) {
	db := newTestDB(t)
	architect := createUser(t, db, "arch@example.com", domain.RoleArchitect)
	ctx := context.Background()

	for _, title := range []string{"One", "Two", "Three"} {
		d := &domain.Design{ArchitectID: architect.ID, Title: title, BuildingPhotos: photos(title + "-photo")}
		if err := db.Designs().Create(ctx, d); err != nil {
			t.Fatalf("Create %s: %v", title, err)
		}
	}

	list, err := db.Designs().List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 designs, got %d", len(list))
	}
	if list[0].Title != "Three" || len(list[0].BuildingPhotos) != 1 {
		t.Fatalf("expected newest first with photos, got %+v", list[0])
	}

	if err := db.Designs().Delete(ctx, list[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := db.Designs().Delete(ctx, list[0].ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}

	var photoRows int
	if err := db.SqlDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM design_photos WHERE design_id = ?", list[0].ID,
	).Scan(&photoRows); err != nil {
		t.Fatalf("count photos: %v", err)
	}
	if photoRows != 0 {
		t.Fatalf("expected photos to cascade, got %d rows", photoRows)
	}
}

func TestFileStore_SaveGetDelete(t *testing.T) {
	db := newTestDB(t)
	files := db.FileStore()
	ctx := context.Background()

	if err := files.Save(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := files.Save(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	data, err := files.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "two" {
		t.Fatalf("expected overwritten data, got %q", data)
	}

	if err := files.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := files.Get(ctx, "k"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPruneUnreferenced(t *testing.T) {
	db := newTestDB(t)
	architect := createUser(t, db, "arch@example.com", domain.RoleArchitect)
	files := db.FileStore()
	ctx := context.Background()

	for _, key := range []string{"design-photos/kept", "design-photos/orphan", "other/orphan"} {
		if err := files.Save(ctx, key, []byte(key)); err != nil {
			t.Fatalf("Save %s: %v", key, err)
		}
	}
	d := &domain.Design{ArchitectID: architect.ID, Title: "Pavilion", BuildingPhotos: photos("design-photos/kept")}
	if err := db.Designs().Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Nothing is old enough yet.
	n, err := db.PruneUnreferenced(ctx, "design-photos/", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("PruneUnreferenced: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected recent blobs to be spared, pruned %d", n)
	}

	n, err = db.PruneUnreferenced(ctx, "design-photos/", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("PruneUnreferenced: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 blob pruned, got %d", n)
	}
	if _, err := files.Get(ctx, "design-photos/orphan"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected orphan removed, got %v", err)
	}
	for _, key := range []string{"design-photos/kept", "other/orphan"} {
		if _, err := files.Get(ctx, key); err != nil {
			t.Fatalf("expected %s kept: %v", key, err)
		}
	}
}
