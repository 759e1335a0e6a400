package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"complaint-service/internal/model"
)

const uniqueViolationCode = "23505"

var ErrDuplicate = errors.New("record already exists")

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Create(ctx context.Context, employee *model.Employee) error {
	err := r.db.WithContext(ctx).Create(employee).Error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrDuplicate
	}
	return err
}

func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*model.Employee, error) {
	var employee model.Employee
	if err := r.db.WithContext(ctx).First(&employee, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}
