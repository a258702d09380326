package gateway

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/crashgame/backend/internal/config"
)

// claims is the expected bearer token payload.
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// validateToken verifies an HS256 bearer token and extracts (userID, role).
func validateToken(cfg config.JWTConfig, token string) (uuid.UUID, Role, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer))
	if err != nil {
		return uuid.Nil, RoleGuest, fmt.Errorf("invalid token: %w", err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return uuid.Nil, RoleGuest, fmt.Errorf("invalid token claims")
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, RoleGuest, fmt.Errorf("invalid subject: %w", err)
	}

	role := RoleUser
	if c.Role == string(RoleAdmin) {
		role = RoleAdmin
	}
	return userID, role, nil
}
