package domain

import "context"

// AppendIndex marks an uploaded file that should be appended to a category
// rather than replace an existing position.
const AppendIndex = -1

// PhotoFile is an uploaded binary blob with its declared media type.
type PhotoFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file size in bytes.
func (f PhotoFile) Size() int64 {
	return int64(len(f.Data))
}

// PhotoChanges is the reconciled edit set for one category.
// Files and Indices are parallel: Indices[i] is the existing position that
// Files[i] replaces, or AppendIndex. Deleted lists existing positions to drop.
type PhotoChanges struct {
	Files   []PhotoFile
	Indices []int
	Deleted []int
}

// IsEmpty reports whether the change set would leave the category untouched.
func (c PhotoChanges) IsEmpty() bool {
	return len(c.Files) == 0 && len(c.Deleted) == 0
}

// DesignUpdate is the combined request accepted by the design update endpoint.
type DesignUpdate struct {
	Fields DesignFields
	Photos map[PhotoCategory]PhotoChanges
}

// FileStore abstracts raw file byte storage.
type FileStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// PhotoURL returns the display locator of a stored photo.
func PhotoURL(storageKey string) string {
	return "/photos/" + storageKey
}
