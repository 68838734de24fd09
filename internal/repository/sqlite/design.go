package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/design-gallery/internal/domain"
)

// designRepo implements domain.DesignRepository using SQLite.
type designRepo struct {
	db *sql.DB
}

func (r *designRepo) Create(ctx context.Context, d *domain.Design) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO designs (architect_id, title, description, location, style, area_sqm, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ArchitectID, d.Title, d.Description, d.Location, d.Style, d.AreaSqm, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert design: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get design id: %w", err)
	}

	if err := insertPhotos(ctx, tx, id, d); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	d.ID = id
	d.CreatedAt = now
	d.UpdatedAt = now
	fillPhotoURLs(d)
	return nil
}

func (r *designRepo) GetByID(ctx context.Context, id int64) (*domain.Design, error) {
	d := &domain.Design{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, architect_id, title, description, location, style, area_sqm, created_at, updated_at
		 FROM designs WHERE id = ?`, id,
	).Scan(&d.ID, &d.ArchitectID, &d.Title, &d.Description, &d.Location, &d.Style,
		&d.AreaSqm, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get design: %w", err)
	}

	if err := r.loadPhotos(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns designs newest first, with their photos.
func (r *designRepo) List(ctx context.Context, limit, offset int) ([]domain.Design, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, architect_id, title, description, location, style, area_sqm, created_at, updated_at
		 FROM designs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}

	var designs []domain.Design
	for rows.Next() {
		var d domain.Design
		if err := rows.Scan(&d.ID, &d.ArchitectID, &d.Title, &d.Description, &d.Location, &d.Style,
			&d.AreaSqm, &d.CreatedAt, &d.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan design: %w", err)
		}
		designs = append(designs, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate designs: %w", err)
	}

	// Photos are loaded after the cursor is closed; the pool holds one connection.
	for i := range designs {
		if err := r.loadPhotos(ctx, &designs[i]); err != nil {
			return nil, err
		}
	}
	return designs, nil
}

// Update writes the scalar fields and replaces both photo lists atomically.
func (r *designRepo) Update(ctx context.Context, d *domain.Design) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`UPDATE designs SET title = ?, description = ?, location = ?, style = ?, area_sqm = ?, updated_at = ?
		 WHERE id = ?`,
		d.Title, d.Description, d.Location, d.Style, d.AreaSqm, now, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update design: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM design_photos WHERE design_id = ?", d.ID); err != nil {
		return fmt.Errorf("clear design photos: %w", err)
	}
	if err := insertPhotos(ctx, tx, d.ID, d); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	d.UpdatedAt = now
	fillPhotoURLs(d)
	return nil
}

func (r *designRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM designs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete design: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *designRepo) loadPhotos(ctx context.Context, d *domain.Design) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, storage_key FROM design_photos
		 WHERE design_id = ? ORDER BY category, position`, d.ID)
	if err != nil {
		return fmt.Errorf("list design photos: %w", err)
	}
	defer rows.Close()

	d.BuildingPhotos, d.FloorPlanPhotos = nil, nil
	for rows.Next() {
		var category domain.PhotoCategory
		var key string
		if err := rows.Scan(&category, &key); err != nil {
			return fmt.Errorf("scan design photo: %w", err)
		}
		p := domain.Photo{StorageKey: key, URL: domain.PhotoURL(key)}
		d.SetPhotos(category, append(d.Photos(category), p))
	}
	return rows.Err()
}

func insertPhotos(ctx context.Context, tx *sql.Tx, designID int64, d *domain.Design) error {
	for _, c := range domain.PhotoCategories {
		for pos, p := range d.Photos(c) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO design_photos (design_id, category, position, storage_key) VALUES (?, ?, ?, ?)`,
				designID, c, pos, p.StorageKey,
			); err != nil {
				return fmt.Errorf("insert %s photo %d: %w", c, pos, err)
			}
		}
	}
	return nil
}

func fillPhotoURLs(d *domain.Design) {
	for _, c := range domain.PhotoCategories {
		for i := range d.Photos(c) {
			d.Photos(c)[i].URL = domain.PhotoURL(d.Photos(c)[i].StorageKey)
		}
	}
}
