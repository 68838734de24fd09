package domain

import (
	"context"
	"fmt"
	"time"
)

// PhotoCategory names one of the two independent photo collections of a design.
type PhotoCategory string

const (
	PhotoCategoryBuilding  PhotoCategory = "building"
	PhotoCategoryFloorPlan PhotoCategory = "floor_plan"
)

// PhotoCategories lists every category in a fixed order.
var PhotoCategories = []PhotoCategory{PhotoCategoryBuilding, PhotoCategoryFloorPlan}

// ParsePhotoCategory converts a path or form value into a PhotoCategory.
func ParsePhotoCategory(s string) (PhotoCategory, error) {
	switch PhotoCategory(s) {
	case PhotoCategoryBuilding, PhotoCategoryFloorPlan:
		return PhotoCategory(s), nil
	}
	return "", fmt.Errorf("%w: unknown photo category %q", ErrInvalidInput, s)
}

// FieldPrefix is the camelCase prefix used for the category's multipart fields,
// e.g. "building" -> buildingPhotos, buildingPhotoIndices.
func (c PhotoCategory) FieldPrefix() string {
	if c == PhotoCategoryFloorPlan {
		return "floorPlan"
	}
	return string(c)
}

// Label is the human readable category name.
func (c PhotoCategory) Label() string {
	if c == PhotoCategoryFloorPlan {
		return "Floor plans"
	}
	return "Building photos"
}

// Photo is one persisted photo of a design. Photos have no identity beyond
// their position in the category's ordered list.
type Photo struct {
	StorageKey string // Key in the FileStore; empty for photos read from a remote API
	URL        string // Display locator
}

// Design is an architectural design listing.
type Design struct {
	ID              int64
	ArchitectID     int64
	Title           string
	Description     string
	Location        string
	Style           string
	AreaSqm         float64
	BuildingPhotos  []Photo
	FloorPlanPhotos []Photo
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Photos returns the ordered photos of the given category.
func (d *Design) Photos(c PhotoCategory) []Photo {
	if c == PhotoCategoryFloorPlan {
		return d.FloorPlanPhotos
	}
	return d.BuildingPhotos
}

// SetPhotos replaces the ordered photos of the given category.
func (d *Design) SetPhotos(c PhotoCategory, photos []Photo) {
	if c == PhotoCategoryFloorPlan {
		d.FloorPlanPhotos = photos
		return
	}
	d.BuildingPhotos = photos
}

// PhotoURLs returns the display locators of the given category in order.
func (d *Design) PhotoURLs(c PhotoCategory) []string {
	photos := d.Photos(c)
	urls := make([]string, len(photos))
	for i, p := range photos {
		urls[i] = p.URL
	}
	return urls
}

// DesignFields holds optional edits to the scalar fields of a design.
// Nil pointers leave the current value untouched.
type DesignFields struct {
	Title       *string
	Description *string
	Location    *string
	Style       *string
	AreaSqm     *float64
}

// IsZero reports whether no field is set.
func (f DesignFields) IsZero() bool {
	return f.Title == nil && f.Description == nil && f.Location == nil &&
		f.Style == nil && f.AreaSqm == nil
}

// Apply writes every set field onto d.
func (f DesignFields) Apply(d *Design) {
	if f.Title != nil {
		d.Title = *f.Title
	}
	if f.Description != nil {
		d.Description = *f.Description
	}
	if f.Location != nil {
		d.Location = *f.Location
	}
	if f.Style != nil {
		d.Style = *f.Style
	}
	if f.AreaSqm != nil {
		d.AreaSqm = *f.AreaSqm
	}
}

// DesignRepository handles design persistence. Update writes scalar fields
// and both ordered photo lists in a single transaction.
type DesignRepository interface {
	Create(ctx context.Context, design *Design) error
	GetByID(ctx context.Context, id int64) (*Design, error)
	List(ctx context.Context, limit, offset int) ([]Design, error)
	Update(ctx context.Context, design *Design) error
	Delete(ctx context.Context, id int64) error
}
