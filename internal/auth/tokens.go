// Package auth issues and validates the access and refresh tokens.
package auth

import (
	"time"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// TokenManager signs short-lived access tokens and long-lived refresh tokens
// with separate secrets.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (m *TokenManager) IssueAccess(userID string) (string, error) {
	return m.sign(userID, m.accessSecret, m.AccessTTL)
}

func (m *TokenManager) IssueRefresh(userID string) (string, error) {
	return m.sign(userID, m.refreshSecret, m.RefreshTTL)
}

// ParseAccess returns the user ID carried by a valid access token.
func (m *TokenManager) ParseAccess(token string) (string, error) {
	return m.parse(token, m.accessSecret)
}

// ParseRefresh returns the user ID carried by a valid refresh token.
func (m *TokenManager) ParseRefresh(token string) (string, error) {
	return m.parse(token, m.refreshSecret)
}

func (m *TokenManager) sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &models.JwtCustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *TokenManager) parse(tokenString string, secret []byte) (string, error) {
	if tokenString == "" {
		return "", apperr.Unauthorized("Please log in to continue.")
	}
	claims := &models.JwtCustomClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", apperr.Unauthorized("Invalid or expired token.")
	}
	return claims.UserID, nil
}
