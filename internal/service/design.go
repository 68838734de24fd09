package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/msomdec/design-gallery/internal/domain"
	"github.com/msomdec/design-gallery/internal/photoedit"
)

const maxListLimit = 100

// PhotoKeyPrefix namespaces design photo blobs in the file store.
const PhotoKeyPrefix = "design-photos/"

// DesignService manages design listings and applies photo edits to them.
type DesignService struct {
	designs domain.DesignRepository
	files   domain.FileStore
}

// NewDesignService creates a new DesignService.
func NewDesignService(designs domain.DesignRepository, files domain.FileStore) *DesignService {
	return &DesignService{designs: designs, files: files}
}

// GetDesign retrieves a design with its ordered photos.
func (s *DesignService) GetDesign(ctx context.Context, id int64) (*domain.Design, error) {
	return s.designs.GetByID(ctx, id)
}

// List returns a page of designs, newest first.
func (s *DesignService) List(ctx context.Context, limit, offset int) ([]domain.Design, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.designs.List(ctx, limit, offset)
}

// Create adds a design owned by the given architect. Admins may create
// designs too; they become the owner.
func (s *DesignService) Create(ctx context.Context, user *domain.User, fields domain.DesignFields) (*domain.Design, error) {
	if user == nil || (user.Role != domain.RoleArchitect && user.Role != domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}

	d := &domain.Design{ArchitectID: user.ID}
	fields.Apply(d)
	if err := validateDesign(d); err != nil {
		return nil, err
	}

	if err := s.designs.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create design: %w", err)
	}
	return d, nil
}

// Authorize loads a design and checks that the user may edit it.
func (s *DesignService) Authorize(ctx context.Context, user *domain.User, id int64) (*domain.Design, error) {
	d, err := s.designs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.CanEditDesign(d) {
		return nil, domain.ErrForbidden
	}
	return d, nil
}

// Delete removes a design and its stored photos.
func (s *DesignService) Delete(ctx context.Context, user *domain.User, id int64) error {
	d, err := s.Authorize(ctx, user, id)
	if err != nil {
		return err
	}
	if err := s.designs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete design: %w", err)
	}
	for _, c := range domain.PhotoCategories {
		s.deleteBlobs(ctx, storageKeys(d.Photos(c)))
	}
	return nil
}

// UpdateDesign applies scalar edits and per-category photo changes to a
// design in one repository update. Deletions and replacements address the
// positions the design had before the update; appended files follow the
// surviving photos in upload order. Callers check authorization first.
func (s *DesignService) UpdateDesign(ctx context.Context, id int64, update domain.DesignUpdate) (*domain.Design, error) {
	d, err := s.designs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update.Fields.Apply(d)
	if err := validateDesign(d); err != nil {
		return nil, err
	}

	var saved, orphaned []string
	for _, c := range domain.PhotoCategories {
		changes, ok := update.Photos[c]
		if !ok || changes.IsEmpty() {
			continue
		}

		next, added, err := s.applyChanges(ctx, c, d.Photos(c), changes)
		saved = append(saved, added...)
		if err != nil {
			s.deleteBlobs(ctx, saved)
			return nil, err
		}
		orphaned = append(orphaned, removedKeys(d.Photos(c), next)...)
		d.SetPhotos(c, next)
	}

	if err := s.designs.Update(ctx, d); err != nil {
		s.deleteBlobs(ctx, saved)
		return nil, fmt.Errorf("update design: %w", err)
	}

	s.deleteBlobs(ctx, orphaned)
	return d, nil
}

// applyChanges validates one category's change set against its current
// photos, stores the new files and returns the resulting ordered list along
// with the keys it stored.
func (s *DesignService) applyChanges(ctx context.Context, c domain.PhotoCategory, current []domain.Photo, ch domain.PhotoChanges) ([]domain.Photo, []string, error) {
	if len(ch.Files) != len(ch.Indices) {
		return nil, nil, fmt.Errorf("%w: %s: %d files but %d indices", domain.ErrInvalidInput, c, len(ch.Files), len(ch.Indices))
	}

	if v := photoedit.Validate(ch.Files, photoedit.ModeAppend); len(v.Rejected) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, v.Summary(photoedit.DefaultSummaryLimit))
	}

	deleted := make(map[int]bool, len(ch.Deleted))
	for _, i := range ch.Deleted {
		if i < 0 || i >= len(current) {
			return nil, nil, fmt.Errorf("%w: %s: deleted index %d out of range", domain.ErrInvalidInput, c, i)
		}
		deleted[i] = true
	}

	replaced := make(map[int]domain.PhotoFile)
	var appended []domain.PhotoFile
	for k, i := range ch.Indices {
		switch {
		case i == domain.AppendIndex:
			appended = append(appended, ch.Files[k])
		case i < 0 || i >= len(current):
			return nil, nil, fmt.Errorf("%w: %s: replacement index %d out of range", domain.ErrInvalidInput, c, i)
		case deleted[i]:
			return nil, nil, fmt.Errorf("%w: %s: index %d is both replaced and deleted", domain.ErrInvalidInput, c, i)
		default:
			if _, dup := replaced[i]; dup {
				return nil, nil, fmt.Errorf("%w: %s: index %d replaced twice", domain.ErrInvalidInput, c, i)
			}
			replaced[i] = ch.Files[k]
		}
	}

	var stored []string
	store := func(f domain.PhotoFile) (domain.Photo, error) {
		key := PhotoKeyPrefix + uuid.NewString()
		if err := s.files.Save(ctx, key, f.Data); err != nil {
			return domain.Photo{}, fmt.Errorf("save photo %s: %w", f.Name, err)
		}
		stored = append(stored, key)
		return domain.Photo{StorageKey: key, URL: domain.PhotoURL(key)}, nil
	}

	next := make([]domain.Photo, 0, len(current)+len(appended))
	for i, p := range current {
		if deleted[i] {
			continue
		}
		if f, ok := replaced[i]; ok {
			np, err := store(f)
			if err != nil {
				return nil, stored, err
			}
			next = append(next, np)
			continue
		}
		next = append(next, p)
	}
	for _, f := range appended {
		np, err := store(f)
		if err != nil {
			return nil, stored, err
		}
		next = append(next, np)
	}
	return next, stored, nil
}

func (s *DesignService) deleteBlobs(ctx context.Context, keys []string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := s.files.Delete(ctx, k); err != nil {
			slog.Warn("delete photo blob", "key", k, "error", err)
		}
	}
}

func validateDesign(d *domain.Design) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if d.AreaSqm < 0 {
		return fmt.Errorf("%w: area must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

func storageKeys(photos []domain.Photo) []string {
	keys := make([]string, 0, len(photos))
	for _, p := range photos {
		keys = append(keys, p.StorageKey)
	}
	return keys
}

// removedKeys returns the storage keys of before that no longer appear in after.
func removedKeys(before, after []domain.Photo) []string {
	kept := make(map[string]bool, len(after))
	for _, p := range after {
		kept[p.StorageKey] = true
	}
	var removed []string
	for _, p := range before {
		if !kept[p.StorageKey] {
			removed = append(removed, p.StorageKey)
		}
	}
	return removed
}
