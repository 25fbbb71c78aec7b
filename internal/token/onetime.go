package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/clock"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/config"
)

// Purpose scopes a one-time token to a single flow. A token generated for
// one purpose never validates for another.
type Purpose string

const (
	PurposeEmailConfirm  Purpose = "email-confirm"
	PurposePasswordReset Purpose = "password-reset"
)

// OneTimeTokens generates and checks single-purpose tokens for email
// confirmation and password reset flows.
type OneTimeTokens interface {
	Generate(userID string, purpose Purpose) (string, error)
	Validate(userID string, purpose Purpose, token string) bool
}

type oneTimeClaims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// JWTOneTimeTokens implements OneTimeTokens as short JWTs signed with a
// secret separate from the access-token key.
type JWTOneTimeTokens struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewJWTOneTimeTokens(cfg config.JWTConfig, clk clock.Clock) *JWTOneTimeTokens {
	return &JWTOneTimeTokens{
		secret: []byte(cfg.OneTimeSecret),
		ttl:    time.Duration(cfg.OneTimeTokenTTLHours) * time.Hour,
		clock:  clk,
	}
}

func (o *JWTOneTimeTokens) Generate(userID string, purpose Purpose) (string, error) {
	now := o.clock.Now()
	claims := &oneTimeClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(o.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(o.secret)
}

func (o *JWTOneTimeTokens) Validate(userID string, purpose Purpose, tokenString string) bool {
	claims := &oneTimeClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return o.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(o.clock.Now),
	)
	if err != nil || !token.Valid {
		return false
	}
	return claims.Subject == userID && claims.Purpose == purpose
}
