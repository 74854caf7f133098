package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

func (m *TokenManager) Generate(userID uuid.UUID) (string, string, error) {
	now := m.now()

	at := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"iat":  now.Unix(),
		"exp":  now.Add(m.accessTTL).Unix(),
		"type": tokenTypeAccess,
	})
	accessToken, err := at.SignedString(m.accessSecret)
	if err != nil {
		return "", "", err
	}

	rt := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"iat":  now.Unix(),
		"exp":  now.Add(m.refreshTTL).Unix(),
		"jti":  uuid.NewString(),
		"type": tokenTypeRefresh,
	})
	refreshToken, err := rt.SignedString(m.refreshSecret)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// Verify checks an access token and returns the account it was issued for
// together with its expiry.
func (m *TokenManager) Verify(tokenStr string) (uuid.UUID, time.Time, error) {
	return m.validate(tokenStr, m.accessSecret, tokenTypeAccess)
}

func (m *TokenManager) ValidateRefreshToken(tokenStr string) (uuid.UUID, error) {
	id, _, err := m.validate(tokenStr, m.refreshSecret, tokenTypeRefresh)
	return id, err
}

func (m *TokenManager) validate(tokenStr string, secret []byte, wantType string) (uuid.UUID, time.Time, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, time.Time{}, ErrInvalidToken
	}
	if typ, _ := claims["type"].(string); typ != wantType {
		return uuid.Nil, time.Time{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, time.Time{}, ErrInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return uuid.Nil, time.Time{}, ErrInvalidToken
	}
	return id, exp.Time, nil
}
