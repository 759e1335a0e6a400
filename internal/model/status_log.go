package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComplaintStatusLog struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ComplaintID uuid.UUID        `gorm:"type:uuid;not null" json:"complaint_id"`
	OldStatus   *ComplaintStatus `gorm:"type:complaint_status" json:"old_status"`
	NewStatus   ComplaintStatus  `gorm:"type:complaint_status;not null" json:"new_status"`
	Note        string           `gorm:"type:text" json:"note"`
	ChangedBy   *uuid.UUID       `gorm:"type:uuid" json:"changed_by"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (ComplaintStatusLog) TableName() string {
	return "complaint_status_log"
}

func (l *ComplaintStatusLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
