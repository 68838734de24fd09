package handler

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/msomdec/design-gallery/internal/domain"
	"github.com/msomdec/design-gallery/internal/photoedit"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.Format(time.RFC3339),
	}
}

// DesignDTO is the JSON representation of a design. Photo fields are
// always arrays of display URLs, in order.
type DesignDTO struct {
	ID              int64    `json:"id"`
	ArchitectID     int64    `json:"architectId"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Location        string   `json:"location"`
	Style           string   `json:"style"`
	AreaSqm         float64  `json:"areaSqm"`
	BuildingPhotos  []string `json:"buildingPhotos"`
	FloorPlanPhotos []string `json:"floorPlanPhotos"`
	CreatedAt       string   `json:"createdAt"`
	UpdatedAt       string   `json:"updatedAt"`
	Updated         string   `json:"updated"` // e.g. "3 minutes ago"
}

func toDesignDTO(d *domain.Design) DesignDTO {
	return DesignDTO{
		ID:              d.ID,
		ArchitectID:     d.ArchitectID,
		Title:           d.Title,
		Description:     d.Description,
		Location:        d.Location,
		Style:           d.Style,
		AreaSqm:         d.AreaSqm,
		BuildingPhotos:  d.PhotoURLs(domain.PhotoCategoryBuilding),
		FloorPlanPhotos: d.PhotoURLs(domain.PhotoCategoryFloorPlan),
		CreatedAt:       d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       d.UpdatedAt.Format(time.RFC3339),
		Updated:         humanize.Time(d.UpdatedAt),
	}
}

func toDesignDTOs(designs []domain.Design) []DesignDTO {
	dtos := make([]DesignDTO, len(designs))
	for i := range designs {
		dtos[i] = toDesignDTO(&designs[i])
	}
	return dtos
}

// RejectionDTO names one rejected upload.
type RejectionDTO struct {
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
}

// ValidationDTO reports the outcome of an editor upload.
type ValidationDTO struct {
	Accepted int            `json:"accepted"`
	Ignored  int            `json:"ignored"`
	Rejected []RejectionDTO `json:"rejected"`
	Summary  string         `json:"summary,omitempty"`
	Note     string         `json:"note,omitempty"`
}

func toValidationDTO(v photoedit.Validation) ValidationDTO {
	dto := ValidationDTO{
		Accepted: len(v.Accepted),
		Ignored:  v.Ignored,
		Rejected: make([]RejectionDTO, len(v.Rejected)),
		Summary:  v.Summary(photoedit.DefaultSummaryLimit),
		Note:     v.Note(),
	}
	for i, r := range v.Rejected {
		dto.Rejected[i] = RejectionDTO{FileName: r.FileName, Reason: r.Reason}
	}
	return dto
}
