package rtc

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured means the RTC app id or secret is missing. This is a
// deployment problem, not a user error.
var ErrNotConfigured = errors.New("rtc signing credentials are not configured")

type Credential struct {
	Token     string
	Channel   string
	ExpiresAt time.Time
}

type roomClaims struct {
	Channel string `json:"channel"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// TokenBuilder mints per-join room credentials for the external media
// provider. Tokens are never stored; every join gets a fresh one.
type TokenBuilder struct {
	appID     string
	appSecret string
	ttl       time.Duration
}

func NewTokenBuilder(appID, appSecret string, ttl time.Duration) *TokenBuilder {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenBuilder{
		appID:     appID,
		appSecret: appSecret,
		ttl:       ttl,
	}
}

func (b *TokenBuilder) Mint(channel, identity, role string) (*Credential, error) {
	if b.appID == "" || b.appSecret == "" {
		return nil, ErrNotConfigured
	}

	now := time.Now().UTC()
	expiresAt := now.Add(b.ttl)

	claims := roomClaims{
		Channel: channel,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    b.appID,
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(b.appSecret))
	if err != nil {
		return nil, err
	}

	return &Credential{
		Token:     signed,
		Channel:   channel,
		ExpiresAt: expiresAt,
	}, nil
}
