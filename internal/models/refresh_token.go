package models

import (
	"time"
)

// RefreshToken is one issued refresh token. Only the hash of the secret is
// stored; the plaintext exists exactly once, in the issue response. Rows are
// never deleted by the application, revocation sets RevokedAt instead so
// replays stay detectable.
type RefreshToken struct {
	BaseModel
	UserID      string     `gorm:"size:36;index;not null" json:"userId"`
	TokenHash   string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	RevokedAt   *time.Time `json:"revokedAt,omitempty"`
	RequestInfo string     `gorm:"size:512" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Active reports whether the token is usable at the given instant.
// A token whose expiry equals now is already expired (strict not-after).
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}
