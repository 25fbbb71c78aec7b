package mailer

import (
	"context"
	"log/slog"
	"time"
)

const flushBatchSize = 50

// Service flushes the outbox on an interval until its context is cancelled.
type Service struct {
	outbox   Outbox
	sender   Sender
	from     string
	interval time.Duration
	log      *slog.Logger
}

func NewService(outbox Outbox, sender Sender, from string, interval time.Duration, log *slog.Logger) *Service {
	return &Service{outbox: outbox, sender: sender, from: from, interval: interval, log: log}
}

// Run blocks, flushing periodically. Intended to run in its own goroutine.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.log.Error("outbox flush failed", "error", err)
			}
		}
	}
}

// Flush sends every unsent message in one batch. Per-message failures are
// recorded on the row and do not stop the batch.
func (s *Service) Flush(ctx context.Context) error {
	messages, err := s.outbox.Unsent(ctx, flushBatchSize)
	if err != nil {
		return err
	}
	for _, message := range messages {
		if err := s.sender.Send(ctx, s.from, message.Recipient, message.Subject, message.Body); err != nil {
			s.log.Warn("email send failed", "id", message.ID, "error", err)
			if markErr := s.outbox.MarkFailed(ctx, message.ID, err); markErr != nil {
				return markErr
			}
			continue
		}
		if err := s.outbox.MarkSent(ctx, message.ID); err != nil {
			return err
		}
	}
	return nil
}
