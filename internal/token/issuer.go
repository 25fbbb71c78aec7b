// Package token mints and validates the signed tokens the API hands out:
// short-lived access tokens and single-purpose one-time tokens. Nothing in
// this package touches storage.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/clock"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/config"
)

var (
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrMalformedToken   = errors.New("token malformed")
)

// Claims are the access-token claims. Subject carries the user ID.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Issuer mints and validates signed access tokens. It is stateless; every
// failure means "unauthenticated" to the caller, never "retry".
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
	clock    clock.Clock
}

// NewIssuer builds an Issuer from the JWT section of the config.
func NewIssuer(cfg config.JWTConfig, clk clock.Clock) *Issuer {
	return &Issuer{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute,
		leeway:   time.Duration(cfg.ClockSkewSeconds) * time.Second,
		clock:    clk,
	}
}

// TTL returns the configured access-token lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs an access token for the given subject.
func (i *Issuer) Issue(subjectID, email, displayName string) (string, error) {
	now := i.clock.Now()
	claims := &Claims{
		Email: email,
		Name:  displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate checks signature, expiry, issuer, and audience. It never consults
// storage.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithLeeway(i.leeway),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}
	return claims, nil
}

func (i *Issuer) keyFunc(t *jwt.Token) (interface{}, error) {
	return i.secret, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrInvalidSignature
	default:
		return ErrMalformedToken
	}
}
