package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaint-service/internal/model"
)

func testEmployee() model.Employee {
	return model.Employee{
		ID:    uuid.New(),
		Email: "clerk@city.gov",
		Role:  model.UserRoleEmployee,
	}
}

func TestIssueAndParse(t *testing.T) {
	employee := testEmployee()
	issuer := NewIssuer("secret", time.Hour)

	token, expiresAt, err := issuer.Issue(employee)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := NewParser("secret").Parse(token)
	require.NoError(t, err)

	principal, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, employee.ID, principal.EmployeeID)
	assert.Equal(t, employee.Email, principal.Email)
	assert.True(t, principal.IsEmployee())
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewIssuer("secret", time.Hour).Issue(testEmployee())
	require.NoError(t, err)

	_, err = NewParser("other").Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseRejectsExpired(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := issuer.Issue(testEmployee())
	require.NoError(t, err)

	_, err = NewParser("secret").Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewParser("secret").Parse(token)
	assert.Error(t, err)
}

func TestParseRequiresExpiry(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewParser("secret").Parse(token)
	assert.Error(t, err)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "battery staple"), ErrPasswordMismatch)
}
