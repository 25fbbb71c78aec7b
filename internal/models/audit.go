package models

import "time"

// AuditStamp carries creation, modification, and soft-delete provenance for
// entities that need it. Embedded, not inherited; entities opt in.
type AuditStamp struct {
	CreatedAt  time.Time  `json:"createdAt"`
	CreatedBy  string     `gorm:"size:64" json:"createdBy"`
	ModifiedAt time.Time  `json:"modifiedAt"`
	ModifiedBy string     `gorm:"size:64" json:"modifiedBy"`
	DeletedAt  *time.Time `gorm:"index" json:"deletedAt,omitempty"`
	DeletedBy  *string    `gorm:"size:64" json:"deletedBy,omitempty"`
}

// SystemActor is recorded when a change originates from the application
// itself rather than an authenticated user.
const SystemActor = "system"

// StampCreate fills the creation and modification fields.
func StampCreate(s *AuditStamp, now time.Time, actor string) {
	s.CreatedAt = now
	s.CreatedBy = actor
	s.ModifiedAt = now
	s.ModifiedBy = actor
}

// StampModify updates the modification fields.
func StampModify(s *AuditStamp, now time.Time, actor string) {
	s.ModifiedAt = now
	s.ModifiedBy = actor
}

// StampDelete marks a soft delete. It also counts as a modification.
func StampDelete(s *AuditStamp, now time.Time, actor string) {
	s.ModifiedAt = now
	s.ModifiedBy = actor
	s.DeletedAt = &now
	s.DeletedBy = &actor
}

// IsDeleted reports whether the entity has been soft-deleted.
func (s *AuditStamp) IsDeleted() bool { return s.DeletedAt != nil }
