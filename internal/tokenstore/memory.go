package tokenstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/clock"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/models"
)

// MemoryStore keeps refresh tokens in a map guarded by a mutex. It mirrors
// GormStore's semantics, including the compare-and-set revoke, and backs the
// test suites and local development without a database.
type MemoryStore struct {
	mu     sync.Mutex
	byHash map[string]*models.RefreshToken
	byID   map[string]*models.RefreshToken
	clock  clock.Clock
	hash   hasher
	ttl    time.Duration
}

func NewMemoryStore(clk clock.Clock, ttlDays int, hashKey string) *MemoryStore {
	return &MemoryStore{
		byHash: make(map[string]*models.RefreshToken),
		byID:   make(map[string]*models.RefreshToken),
		clock:  clk,
		hash:   newHasher(hashKey),
		ttl:    time.Duration(ttlDays) * 24 * time.Hour,
	}
}

func (s *MemoryStore) Issue(ctx context.Context, ownerID, requestInfo string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(ownerID, requestInfo), nil
}

func (s *MemoryStore) Validate(ctx context.Context, plaintext string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byHash[s.hash(plaintext)]
	if !ok {
		return nil, ErrNotFound
	}
	if record.RevokedAt != nil {
		return nil, ErrRevoked
	}
	if !record.ExpiresAt.After(s.clock.Now()) {
		return nil, ErrExpired
	}
	copied := *record
	return &copied, nil
}

func (s *MemoryStore) Revoke(ctx context.Context, record *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokeLocked(record.ID)
	return nil
}

func (s *MemoryStore) Rotate(ctx context.Context, record *models.RefreshToken, requestInfo string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.revokeLocked(record.ID) {
		return "", ErrRevoked
	}
	return s.createLocked(record.UserID, requestInfo), nil
}

func (s *MemoryStore) RevokeAllForOwner(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.byID {
		if record.UserID == ownerID {
			s.revokeLocked(record.ID)
		}
	}
	return nil
}

func (s *MemoryStore) createLocked(ownerID, requestInfo string) string {
	plaintext := uuid.New().String()
	now := s.clock.Now()
	record := &models.RefreshToken{
		BaseModel:   models.BaseModel{ID: uuid.New().String()},
		UserID:      ownerID,
		TokenHash:   s.hash(plaintext),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
		RequestInfo: requestInfo,
	}
	s.byHash[record.TokenHash] = record
	s.byID[record.ID] = record
	return plaintext
}

// revokeLocked reports whether this call flipped the record. Re-revoking
// keeps the first timestamp.
func (s *MemoryStore) revokeLocked(recordID string) bool {
	record, ok := s.byID[recordID]
	if !ok || record.RevokedAt != nil {
		return false
	}
	now := s.clock.Now()
	record.RevokedAt = &now
	return true
}

// Get returns the stored record by ID, for tests that need to inspect state.
func (s *MemoryStore) Get(recordID string) (*models.RefreshToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.byID[recordID]
	if !ok {
		return nil, false
	}
	copied := *record
	return &copied, true
}
