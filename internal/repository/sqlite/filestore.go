package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/design-gallery/internal/domain"
)

// fileStore keeps photo bytes as BLOB rows next to the metadata, so a
// single database file holds the whole gallery.
type fileStore struct {
	db *sql.DB
}

// Save stores data under key, overwriting any previous blob with that key.
func (s *fileStore) Save(ctx context.Context, key string, data []byte) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO file_blobs (storage_key, data, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(storage_key) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`,
		key, data, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("save blob %s: %w", key, err)
	}
	return nil
}

func (s *fileStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	switch err := s.db.QueryRowContext(ctx,
		"SELECT data FROM file_blobs WHERE storage_key = ?", key,
	).Scan(&data); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the blob. Deleting a missing key is not an error.
func (s *fileStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM file_blobs WHERE storage_key = ?", key); err != nil {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// PruneUnreferenced deletes blobs under prefix that no design photo points
// at and that were written before cutoff. The cutoff spares blobs of an
// update that is still being applied.
func (db *DB) PruneUnreferenced(ctx context.Context, prefix string, cutoff time.Time) (int64, error) {
	result, err := db.SqlDB.ExecContext(ctx,
		`DELETE FROM file_blobs
		 WHERE substr(storage_key, 1, length(?)) = ?
		   AND created_at < ?
		   AND storage_key NOT IN (SELECT storage_key FROM design_photos)`,
		prefix, prefix, cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune blobs: %w", err)
	}
	return result.RowsAffected()
}
