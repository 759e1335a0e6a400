package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"complaint-service/internal/auth"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

type fakeEmployees struct {
	byEmail map[string]model.Employee
	err     error
}

func (f *fakeEmployees) Create(_ context.Context, employee *model.Employee) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byEmail[employee.Email]; ok {
		return repository.ErrDuplicate
	}
	if err := employee.BeforeCreate(nil); err != nil {
		return err
	}
	f.byEmail[employee.Email] = *employee
	return nil
}

func (f *fakeEmployees) GetByEmail(_ context.Context, email string) (*model.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	employee, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &employee, nil
}

func newAuthService(signup bool) (*AuthService, *fakeEmployees) {
	store := &fakeEmployees{byEmail: make(map[string]model.Employee)}
	return NewAuthService(store, auth.NewIssuer("secret", time.Hour), signup, zerolog.Nop()), store
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newAuthService(true)
	ctx := context.Background()

	employee, err := svc.Signup(ctx, "  Clerk@City.GOV ", "longenough", "Pat Clerk")
	require.NoError(t, err)
	assert.Equal(t, "clerk@city.gov", employee.Email)
	assert.Equal(t, model.UserRoleEmployee, employee.Role)
	assert.NotEqual(t, "longenough", employee.PasswordHash)

	session, err := svc.Login(ctx, "CLERK@city.gov", "longenough")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)

	claims, err := auth.NewParser("secret").Parse(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, employee.ID.String(), claims.Subject)
	assert.Equal(t, "clerk@city.gov", claims.Email)
}

func TestSignupRules(t *testing.T) {
	ctx := context.Background()

	disabled, _ := newAuthService(false)
	_, err := disabled.Signup(ctx, "a@b.co", "longenough", "A")
	assert.ErrorIs(t, err, ErrSignupDisabled)

	svc, _ := newAuthService(true)
	_, err = svc.Signup(ctx, "a@b.co", "short", "A")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Signup(ctx, "not-an-email", "longenough", "A")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Signup(ctx, "a@b.co", "longenough", " ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Signup(ctx, "a@b.co", "longenough", "A")
	require.NoError(t, err)
	_, err = svc.Signup(ctx, "A@B.CO", "longenough", "A")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLoginFailures(t *testing.T) {
	svc, store := newAuthService(true)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "a@b.co", "longenough", "A")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@b.co", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@b.co", "longenough")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	store.err = errors.New("connection refused")
	_, err = svc.Login(ctx, "a@b.co", "longenough")
	var extErr *ExternalError
	assert.ErrorAs(t, err, &extErr)
}
