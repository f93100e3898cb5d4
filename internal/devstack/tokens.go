package devstack

import (
	"errors"
	"time"

	"forumclient/internal/infrastructure/identity"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// refreshClaims marks refresh tokens so they cannot be used as bearer credentials.
type refreshClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 access and refresh tokens. Refresh tokens use a
// derived key so they never validate as access tokens.
type TokenIssuer struct {
	secret          []byte
	refreshSecret   []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	now             func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:          []byte(secret),
		refreshSecret:   []byte(secret + ":refresh"),
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		now:             time.Now,
	}
}

func (t *TokenIssuer) GenerateToken(identityID, name, email, picture string) (string, error) {
	now := t.now()
	claims := &identity.Claims{
		Name:    name,
		Email:   email,
		Picture: picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Second)),
			ID:        newID(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenIssuer) GenerateRefreshToken(identityID string) (string, error) {
	now := t.now()
	claims := &refreshClaims{
		Kind: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.refreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        newID(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
}

func (t *TokenIssuer) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return t.secret, nil
}

func (t *TokenIssuer) ValidateToken(tokenString string) (*identity.Claims, error) {
	claims := &identity.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, t.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *TokenIssuer) ValidateRefreshToken(tokenString string) (string, error) {
	claims := &refreshClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.refreshSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if !token.Valid || claims.Kind != "refresh" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// ExpiresIn is the access token lifetime in seconds.
func (t *TokenIssuer) ExpiresIn() int {
	return int(t.accessTokenTTL / time.Second)
}
