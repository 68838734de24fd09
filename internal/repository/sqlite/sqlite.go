package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/msomdec/design-gallery/internal/domain"
	"github.com/msomdec/design-gallery/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB is the SQLite implementation of domain.Database.
type DB struct {
	SqlDB *sql.DB

	users   *UserRepository
	designs *designRepo
	files   *fileStore
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL for concurrent readers; foreign keys for photo cascades.
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := sqlDB.ExecContext(context.Background(), pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	// SQLite serializes writers; one connection also keeps PRAGMAs in effect.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{
		SqlDB:   sqlDB,
		users:   &UserRepository{db: sqlDB},
		designs: &designRepo{db: sqlDB},
		files:   &fileStore{db: sqlDB},
	}, nil
}

// Migrate applies pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	n, err := migrations.Run(ctx, db.SqlDB)
	if err != nil {
		return err
	}
	slog.Debug("migrations complete", "applied", n)
	return nil
}

// Ping checks that the database answers.
func (db *DB) Ping(ctx context.Context) error {
	return db.SqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.SqlDB.Close()
}

func (db *DB) Users() domain.UserRepository { return db.users }
func (db *DB) Designs() domain.DesignRepository { return db.designs }
func (db *DB) FileStore() domain.FileStore { return db.files }
