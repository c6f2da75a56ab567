package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lorrc/ticket-reports/internal/core/domain"
)

// Issuer is stamped on every viewer token.
const Issuer = "ticket-reports"

// Claims defines the structured data we store in the JWT
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secretKey: []byte(secret), ttl: ttl}
}

// GenerateToken creates a viewer token for subject.
func (tm *TokenManager) GenerateToken(subject string, role domain.Role) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	if !role.IsValid() {
		return "", errors.New("unknown role")
	}

	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secretKey)
}

// ValidateToken parses and validates the token string
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secretKey, nil
	}, jwt.WithIssuer(Issuer), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
