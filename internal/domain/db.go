package domain

import "context"

// Database is a storage backend: schema lifecycle plus the repositories it
// serves. FileStore may be overridden by the caller (e.g. S3) without
// swapping the metadata backend.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
	Users() UserRepository
	Designs() DesignRepository
	FileStore() FileStore
}
