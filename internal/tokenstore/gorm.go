package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/clock"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/models"
)

// GormStore is the MySQL-backed Store.
type GormStore struct {
	db    *gorm.DB
	clock clock.Clock
	hash  hasher
	ttl   time.Duration
}

// NewGormStore builds a store with the given refresh-token lifetime in days.
// hashKey may be empty; see newHasher.
func NewGormStore(db *gorm.DB, clk clock.Clock, ttlDays int, hashKey string) *GormStore {
	return &GormStore{
		db:    db,
		clock: clk,
		hash:  newHasher(hashKey),
		ttl:   time.Duration(ttlDays) * 24 * time.Hour,
	}
}

// TTL returns the configured refresh-token lifetime.
func (s *GormStore) TTL() time.Duration { return s.ttl }

func (s *GormStore) Issue(ctx context.Context, ownerID, requestInfo string) (string, error) {
	plaintext, err := s.create(ctx, s.db, ownerID, requestInfo)
	if err != nil {
		return "", err
	}
	return plaintext, nil
}

func (s *GormStore) Validate(ctx context.Context, plaintext string) (*models.RefreshToken, error) {
	var record models.RefreshToken
	err := s.db.WithContext(ctx).
		Where("token_hash = ?", s.hash(plaintext)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if record.RevokedAt != nil {
		return nil, ErrRevoked
	}
	if !record.ExpiresAt.After(s.clock.Now()) {
		return nil, ErrExpired
	}
	return &record, nil
}

func (s *GormStore) Revoke(ctx context.Context, record *models.RefreshToken) error {
	_, err := s.revokeGuarded(ctx, s.db, record.ID)
	return err
}

func (s *GormStore) Rotate(ctx context.Context, record *models.RefreshToken, requestInfo string) (string, error) {
	var plaintext string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		revoked, err := s.revokeGuarded(ctx, tx, record.ID)
		if err != nil {
			return err
		}
		if !revoked {
			// Lost the race against a concurrent rotation; abort so the
			// winner's pair stays the only descendant.
			return ErrRevoked
		}
		plaintext, err = s.create(ctx, tx, record.UserID, requestInfo)
		return err
	})
	if err != nil {
		return "", err
	}
	return plaintext, nil
}

func (s *GormStore) RevokeAllForOwner(ctx context.Context, ownerID string) error {
	result := s.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", ownerID).
		Update("revoked_at", s.clock.Now())
	if result.Error != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, result.Error)
	}
	return nil
}

// create inserts a new record and returns the plaintext secret. The secret is
// a random 128-bit value in UUID form.
func (s *GormStore) create(ctx context.Context, db *gorm.DB, ownerID, requestInfo string) (string, error) {
	plaintext := uuid.New().String()
	now := s.clock.Now()
	record := models.RefreshToken{
		UserID:      ownerID,
		TokenHash:   s.hash(plaintext),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
		RequestInfo: requestInfo,
	}
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return plaintext, nil
}

// revokeGuarded runs the compare-and-set revocation. It reports whether this
// call was the one that flipped the record; false means it was already
// revoked and nothing changed.
func (s *GormStore) revokeGuarded(ctx context.Context, db *gorm.DB, recordID string) (bool, error) {
	result := db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", recordID).
		Update("revoked_at", s.clock.Now())
	if result.Error != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, result.Error)
	}
	return result.RowsAffected > 0, nil
}
