package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the payload of both token kinds. The subject claim carries the user id.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies access and refresh tokens with separate secrets.
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

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func (m *TokenManager) sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	// 1. Create the claims for this user.
	now := m.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	// 2. Sign it with HS256 and the secret of this token kind.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// GenerateAccessToken issues a short-lived token for API calls.
func (m *TokenManager) GenerateAccessToken(userID string) (string, error) {
	return m.sign(userID, m.accessSecret, m.AccessTTL)
}

// GeneratePair issues a fresh access and refresh token.
func (m *TokenManager) GeneratePair(userID string) (TokenPair, error) {
	access, err := m.GenerateAccessToken(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.sign(userID, m.refreshSecret, m.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *TokenManager) validate(tokenString string, secret []byte) (string, error) {
	// 1. Parse the token, only accepting HMAC signatures.
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	// 2. Extract the user id.
	if !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// ValidateAccessToken returns the user id of a valid access token.
func (m *TokenManager) ValidateAccessToken(tokenString string) (string, error) {
	return m.validate(tokenString, m.accessSecret)
}

// ValidateRefreshToken returns the user id of a valid refresh token.
func (m *TokenManager) ValidateRefreshToken(tokenString string) (string, error) {
	return m.validate(tokenString, m.refreshSecret)
}
