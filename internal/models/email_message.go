package models

import "time"

// EmailMessage is a queued outbound email. Handlers only ever append rows;
// the background sender flushes unsent ones and stamps SentAt.
type EmailMessage struct {
	BaseModel
	AuditStamp
	Recipient string     `gorm:"size:255;not null" json:"recipient"`
	Subject   string     `gorm:"size:255;not null" json:"subject"`
	Body      string     `gorm:"type:text;not null" json:"-"`
	SentAt    *time.Time `gorm:"index" json:"sentAt,omitempty"`
	LastError string     `gorm:"size:512" json:"-"`
}
