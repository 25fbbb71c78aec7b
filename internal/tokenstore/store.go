// Package tokenstore persists refresh tokens. The plaintext secret is
// returned to the caller exactly once at issue time; only its hash is ever
// stored. Records are never deleted, revocation sets revoked_at so that
// replayed tokens remain detectable.
package tokenstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/models"
)

var (
	// ErrNotFound means no record matches the presented token's hash.
	ErrNotFound = errors.New("refresh token not found")
	// ErrExpired means the record exists but its expiry has passed.
	// A token whose expiry equals the current instant is expired.
	ErrExpired = errors.New("refresh token expired")
	// ErrRevoked means the record exists but was revoked.
	ErrRevoked = errors.New("refresh token revoked")
	// ErrUnavailable wraps infrastructure faults. It must never be read as
	// "invalid token"; callers may retry with backoff.
	ErrUnavailable = errors.New("token store unavailable")
)

// Store is the refresh-token lifecycle contract.
type Store interface {
	// Issue creates a record for ownerID and returns the plaintext secret.
	Issue(ctx context.Context, ownerID, requestInfo string) (string, error)
	// Validate resolves a presented plaintext to its record, failing with
	// ErrNotFound, ErrRevoked, or ErrExpired.
	Validate(ctx context.Context, plaintext string) (*models.RefreshToken, error)
	// Revoke marks the record revoked. Revoking an already-revoked record is
	// a no-op and keeps the original revocation time.
	Revoke(ctx context.Context, record *models.RefreshToken) error
	// Rotate revokes the given record and issues a replacement for the same
	// owner in one atomic step. If the record was already revoked by a
	// concurrent rotation, it fails with ErrRevoked and writes nothing.
	Rotate(ctx context.Context, record *models.RefreshToken, requestInfo string) (string, error)
	// RevokeAllForOwner revokes every active record belonging to ownerID.
	RevokeAllForOwner(ctx context.Context, ownerID string) error
}

// hasher digests a plaintext secret for at-rest storage.
type hasher func(plaintext string) string

// newHasher returns plain SHA-256 (base64) when key is empty, matching the
// historical on-disk format, or HMAC-SHA256 when a key is configured.
func newHasher(key string) hasher {
	if key == "" {
		return func(plaintext string) string {
			sum := sha256.Sum256([]byte(plaintext))
			return base64.StdEncoding.EncodeToString(sum[:])
		}
	}
	keyBytes := []byte(key)
	return func(plaintext string) string {
		mac := hmac.New(sha256.New, keyBytes)
		mac.Write([]byte(plaintext))
		return base64.StdEncoding.EncodeToString(mac.Sum(nil))
	}
}
