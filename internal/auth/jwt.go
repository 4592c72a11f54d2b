// Package auth extracts the voting principal from HS256 bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Clark-Hu/cinerank/internal/domain"
)

// Claims carries the voter identity. The subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with a shared secret.
type Manager struct {
	secret []byte
	now    func() time.Time
}

// NewManager creates a Manager; the secret must not be empty.
func NewManager(secret string) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("auth secret is required")
	}
	return &Manager{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for voter valid for ttl.
func (m *Manager) Issue(voter domain.Voter, ttl time.Duration) (string, error) {
	if voter.ID == "" {
		return "", fmt.Errorf("%w: voter id is required", domain.ErrInvalidInput)
	}
	now := m.now()
	claims := &Claims{
		Email: voter.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   voter.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates tokenString and returns the voter it names.
func (m *Manager) Verify(tokenString string) (domain.Voter, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return domain.Voter{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if !token.Valid || claims.Subject == "" {
		return domain.Voter{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	return domain.Voter{ID: claims.Subject, Email: claims.Email}, nil
}
