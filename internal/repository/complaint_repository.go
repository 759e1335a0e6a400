package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"complaint-service/internal/model"
)

const defaultListLimit = 200

type ComplaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

type ComplaintFilter struct {
	Statuses    []model.ComplaintStatus
	Categories  []model.ComplaintCategory
	Departments []model.Department
	Search      string
	Limit       int
	Offset      int
}

// Transition describes one status change and the fields written with it.
type Transition struct {
	To                 model.ComplaintStatus
	ResolutionImageURL *string
	ResolvedAt         *time.Time
	Note               string
	ChangedBy          *uuid.UUID
}

func (r *ComplaintRepository) Create(ctx context.Context, complaint *model.Complaint, entry *model.ComplaintStatusLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(complaint).Error; err != nil {
			return err
		}
		if entry != nil {
			entry.ComplaintID = complaint.ID
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Complaint, error) {
	var complaint model.Complaint
	if err := r.db.WithContext(ctx).First(&complaint, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *ComplaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]model.Complaint, error) {
	query := r.db.WithContext(ctx).Model(&model.Complaint{})

	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if len(filter.Categories) > 0 {
		query = query.Where("category IN ?", filter.Categories)
	}
	if len(filter.Departments) > 0 {
		query = query.Where("department IN ?", filter.Departments)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("(issue ILIKE ? OR location_description ILIKE ?)", search, search)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(defaultListLimit)
	}

	var complaints []model.Complaint
	if err := query.Order("created_at DESC").Find(&complaints).Error; err != nil {
		return nil, err
	}
	return complaints, nil
}

// ListAll returns every complaint, newest first. Dashboards and the public
// board aggregate over the whole set.
func (r *ComplaintRepository) ListAll(ctx context.Context) ([]model.Complaint, error) {
	var complaints []model.Complaint
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&complaints).Error; err != nil {
		return nil, err
	}
	return complaints, nil
}

// ApplyTransition writes the status change and its log row in one
// transaction and returns the stored record. The log's old status is the
// one read under the row lock, not the caller's earlier read. Racing
// transitions are not rejected; the last one wins.
func (r *ComplaintRepository) ApplyTransition(ctx context.Context, id uuid.UUID, t Transition) (*model.Complaint, error) {
	var updated model.Complaint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Complaint
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").
			First(&current, "id = ?", id).Error; err != nil {
			return err
		}

		data := map[string]interface{}{
			"status": t.To,
		}
		if t.To == model.StatusResolved {
			data["resolution_image_url"] = t.ResolutionImageURL
			data["resolved_at"] = t.ResolvedAt
		}

		res := tx.Model(&model.Complaint{}).Where("id = ?", id).Updates(data)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		from := current.Status
		if err := tx.Create(&model.ComplaintStatusLog{
			ComplaintID: id,
			OldStatus:   &from,
			NewStatus:   t.To,
			Note:        t.Note,
			ChangedBy:   t.ChangedBy,
		}).Error; err != nil {
			return err
		}

		return tx.First(&updated, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *ComplaintRepository) History(ctx context.Context, id uuid.UUID) ([]model.ComplaintStatusLog, error) {
	var entries []model.ComplaintStatusLog
	if err := r.db.WithContext(ctx).
		Where("complaint_id = ?", id).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
