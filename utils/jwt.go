package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrTokenType = errors.New("unexpected token type")

// TokenClaims is the payload carried by both access and refresh tokens.
type TokenClaims struct {
	UserID uint   `json:"user_id"`
	Type   string `json:"type"`
	jwt.StandardClaims
}

// TokenPair is returned to clients on register and login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// SignAccess issues a short-lived access token.
func (m *TokenManager) SignAccess(userID uint) (string, error) {
	token, _, err := m.sign(userID, TokenTypeAccess, m.accessTTL)
	return token, err
}

// SignRefresh issues a refresh token and returns its expiry so the caller can persist it.
func (m *TokenManager) SignRefresh(userID uint) (string, time.Time, error) {
	return m.sign(userID, TokenTypeRefresh, m.refreshTTL)
}

func (m *TokenManager) sign(userID uint, typ string, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(ttl)
	claims := TokenClaims{
		UserID: userID,
		Type:   typ,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, expiresAt, nil
}

// Parse validates the signature, expiry and token type.
func (m *TokenManager) Parse(tokenStr, wantType string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Type != wantType {
		return nil, ErrTokenType
	}
	return claims, nil
}
