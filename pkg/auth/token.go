package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/grantforge/grantforge/pkg/model"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id,omitempty"`
	Role      string `json:"role"`
}

type TokenManager struct {
	signingKey []byte
	ttl        time.Duration
}

func NewTokenManager(signingKey []byte, ttl time.Duration) *TokenManager {
	return &TokenManager{signingKey: signingKey, ttl: ttl}
}

func (m *TokenManager) Generate(user *model.User) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   user.ID.String(),
			Issuer:    "grantforge",
		},
		UserID: user.ID.String(),
		Role:   string(user.Role),
	}
	if user.CompanyID != nil {
		claims.CompanyID = user.CompanyID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.signingKey)
}

func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.signingKey, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// CompanyUUID parses the company claim; returns uuid.Nil when the user has
// no company association.
func (c *Claims) CompanyUUID() uuid.UUID {
	if c.CompanyID == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(c.CompanyID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (c *Claims) UserUUID() uuid.UUID {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (c *Claims) IsAdmin() bool {
	return c.Role == string(model.RoleAdmin)
}
