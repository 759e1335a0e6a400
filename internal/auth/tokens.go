package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"complaint-service/internal/model"
)

type Claims struct {
	Email string         `json:"email"`
	Role  model.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() (model.Principal, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return model.Principal{}, jwt.ErrTokenInvalidSubject
	}
	return model.Principal{EmployeeID: id, Email: c.Email, Role: c.Role}, nil
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an access token for the employee and returns it with its
// expiry time.
func (i *Issuer) Issue(employee model.Employee) (string, time.Time, error) {
	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)

	claims := Claims{
		Email: employee.Email,
		Role:  employee.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   employee.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return nil, errors.Join(jwt.ErrTokenInvalidClaims, jwt.ErrTokenInvalidSubject)
	}

	return claims, nil
}
