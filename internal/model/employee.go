package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleEmployee UserRole = "EMPLOYEE"
)

type Employee struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	FullName     string    `gorm:"type:varchar(255);not null" json:"full_name"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"`
	Role         UserRole  `gorm:"type:varchar(32);not null" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Employee) TableName() string {
	return "employees"
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Principal is the authenticated employee behind a request.
type Principal struct {
	EmployeeID uuid.UUID
	Email      string
	Role       UserRole
}

func (p Principal) IsEmployee() bool {
	return p.Role == UserRoleEmployee
}
