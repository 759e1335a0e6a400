package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComplaintCategory string

const (
	CategoryPothole           ComplaintCategory = "Pothole"
	CategoryGraffiti          ComplaintCategory = "Graffiti"
	CategoryTrash             ComplaintCategory = "Trash"
	CategoryBrokenStreetlight ComplaintCategory = "Broken Streetlight"
	CategoryOther             ComplaintCategory = "Other"
)

// AllCategories lists categories in their canonical display order.
var AllCategories = []ComplaintCategory{
	CategoryPothole,
	CategoryGraffiti,
	CategoryTrash,
	CategoryBrokenStreetlight,
	CategoryOther,
}

func (c ComplaintCategory) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

type Department string

const (
	DepartmentPublicWorks       Department = "Public Works"
	DepartmentSanitation        Department = "Sanitation"
	DepartmentCommunityServices Department = "Community Services"
	DepartmentGeneralAdmin      Department = "General Administration"
)

var AllDepartments = []Department{
	DepartmentPublicWorks,
	DepartmentSanitation,
	DepartmentCommunityServices,
	DepartmentGeneralAdmin,
}

func (d Department) Valid() bool {
	for _, known := range AllDepartments {
		if d == known {
			return true
		}
	}
	return false
}

// DepartmentFor returns the department responsible for a category.
// Unknown categories fall through to General Administration.
func DepartmentFor(category ComplaintCategory) Department {
	switch category {
	case CategoryPothole, CategoryBrokenStreetlight:
		return DepartmentPublicWorks
	case CategoryTrash:
		return DepartmentSanitation
	case CategoryGraffiti:
		return DepartmentCommunityServices
	default:
		return DepartmentGeneralAdmin
	}
}

type Complaint struct {
	ID                  uuid.UUID          `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Number              int64              `gorm:"column:complaint_number;default:(-)" json:"complaint_number"`
	Issue               string             `gorm:"type:text;not null" json:"issue"`
	LocationDescription string             `gorm:"type:text;not null" json:"location_description"`
	Latitude            float64            `gorm:"not null" json:"latitude"`
	Longitude           float64            `gorm:"not null" json:"longitude"`
	Category            *ComplaintCategory `gorm:"type:complaint_category" json:"category"`
	Department          *Department        `gorm:"type:complaint_department" json:"department"`
	Status              ComplaintStatus    `gorm:"type:complaint_status;not null;default:'New'" json:"status"`
	ImageURL            string             `gorm:"type:text;not null" json:"image_url"`
	ResolutionImageURL  *string            `gorm:"type:text" json:"resolution_image_url"`
	CreatedAt           time.Time          `gorm:"autoCreateTime" json:"created_at"`
	ResolvedAt          *time.Time         `json:"resolved_at"`
}

func (Complaint) TableName() string {
	return "complaints"
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CategoryOrOther buckets a missing category as Other.
func (c Complaint) CategoryOrOther() ComplaintCategory {
	if c.Category == nil || !c.Category.Valid() {
		return CategoryOther
	}
	return *c.Category
}

// ResolutionConsistent reports whether the resolution photo, the resolution
// timestamp and the Resolved status are either all present or all absent.
func (c Complaint) ResolutionConsistent() bool {
	hasImage := c.ResolutionImageURL != nil
	hasTime := c.ResolvedAt != nil
	resolved := c.Status == StatusResolved
	return hasImage == hasTime && hasTime == resolved
}
