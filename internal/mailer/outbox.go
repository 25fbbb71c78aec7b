// Package mailer queues outbound email in the database and flushes the queue
// from a background loop, so request handlers never block on SMTP.
package mailer

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/clock"
	"github.com/1-IT-Gymnazium/1081-RecycleApi/internal/models"
)

// Outbox stores queued messages.
type Outbox interface {
	Enqueue(ctx context.Context, recipient, subject, body string) error
	Unsent(ctx context.Context, limit int) ([]models.EmailMessage, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, sendErr error) error
}

// GormOutbox is the MySQL-backed Outbox.
type GormOutbox struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewGormOutbox(db *gorm.DB, clk clock.Clock) *GormOutbox {
	return &GormOutbox{db: db, clock: clk}
}

func (o *GormOutbox) Enqueue(ctx context.Context, recipient, subject, body string) error {
	message := models.EmailMessage{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
	}
	models.StampCreate(&message.AuditStamp, o.clock.Now(), models.SystemActor)
	if err := o.db.WithContext(ctx).Create(&message).Error; err != nil {
		return fmt.Errorf("queueing email: %w", err)
	}
	return nil
}

func (o *GormOutbox) Unsent(ctx context.Context, limit int) ([]models.EmailMessage, error) {
	var messages []models.EmailMessage
	err := o.db.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("created_at").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("loading unsent email: %w", err)
	}
	return messages, nil
}

func (o *GormOutbox) MarkSent(ctx context.Context, id string) error {
	now := o.clock.Now()
	err := o.db.WithContext(ctx).
		Model(&models.EmailMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"sent_at": now, "last_error": ""}).Error
	if err != nil {
		return fmt.Errorf("marking email sent: %w", err)
	}
	return nil
}

func (o *GormOutbox) MarkFailed(ctx context.Context, id string, sendErr error) error {
	err := o.db.WithContext(ctx).
		Model(&models.EmailMessage{}).
		Where("id = ?", id).
		Update("last_error", sendErr.Error()).Error
	if err != nil {
		return fmt.Errorf("marking email failed: %w", err)
	}
	return nil
}
