package identity

import (
	"errors"
	"time"

	"forumclient/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the ID token payload. The subject is the identity id.
type Claims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// TokenParser turns an access token into a Session. With a secret the HS256
// signature is verified; without one the token is only decoded.
type TokenParser struct {
	secret []byte
}

func NewTokenParser(secret string) *TokenParser {
	p := &TokenParser{}
	if secret != "" {
		p.secret = []byte(secret)
	}
	return p
}

func (p *TokenParser) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	if p.secret == nil {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, ErrInvalidToken
		}
		if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
			return nil, ErrExpiredToken
		}
		return claims, nil
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Session builds the session for token. expiresIn (seconds) is used when the
// token carries no exp claim.
func (p *TokenParser) Session(token string, expiresIn int) (*domain.Session, error) {
	claims, err := p.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	session := &domain.Session{
		IdentityID:  claims.Subject,
		Credential:  token,
		DisplayName: claims.Name,
		AvatarURL:   claims.Picture,
		Email:       claims.Email,
	}
	switch {
	case claims.ExpiresAt != nil:
		session.ExpiresAt = claims.ExpiresAt.Time
	case expiresIn > 0:
		session.ExpiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return session, nil
}
