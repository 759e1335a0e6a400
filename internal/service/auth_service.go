package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"complaint-service/internal/auth"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

type EmployeeStore interface {
	Create(ctx context.Context, employee *model.Employee) error
	GetByEmail(ctx context.Context, email string) (*model.Employee, error)
}

type AuthService struct {
	employees     EmployeeStore
	issuer        *auth.Issuer
	signupEnabled bool
	log           zerolog.Logger
}

func NewAuthService(employees EmployeeStore, issuer *auth.Issuer, signupEnabled bool, log zerolog.Logger) *AuthService {
	return &AuthService{
		employees:     employees,
		issuer:        issuer,
		signupEnabled: signupEnabled,
		log:           log.With().Str("component", "auth_service").Logger(),
	}
}

type Session struct {
	AccessToken string          `json:"access_token"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Employee    *model.Employee `json:"employee"`
}

func (s *AuthService) Signup(ctx context.Context, email, password, fullName string) (*model.Employee, error) {
	if !s.signupEnabled {
		return nil, ErrSignupDisabled
	}

	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email is not valid")
	}
	if len(password) < auth.MinPasswordLength {
		return nil, invalid("password must be at least %d characters", auth.MinPasswordLength)
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, invalid("full_name is required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	employee := &model.Employee{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         model.UserRoleEmployee,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, external(ExternalDatabase, err)
	}

	s.log.Info().Str("employee_id", employee.ID.String()).Msg("employee signed up")
	return employee, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	employee, err := s.employees.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, external(ExternalDatabase, err)
	}

	if err := auth.CheckPassword(employee.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token, expiresAt, err := s.issuer.Issue(*employee)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, ExpiresAt: expiresAt, Employee: employee}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
