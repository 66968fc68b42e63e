package notifications

import (
	"context"

	"github.com/roomiesofficial522-svg/Tkitmaster/pkg/logger"
)

// UserDirectory resolves a user id to a deliverable address.
type UserDirectory interface {
	UserEmail(ctx context.Context, userID string) (string, error)
}

// Service is the notification facade used by the auth and reservation
// services. Everything here is best-effort: it publishes to Kafka when a
// producer is wired, falls back to direct SMTP otherwise, and only ever logs
// failures.
type Service struct {
	producer Producer // may be nil
	mailer   EmailSender
	users    UserDirectory
	logger   *logger.Logger
}

// NewService creates the facade. producer may be nil (direct SMTP fallback).
func NewService(producer Producer, mailer EmailSender, users UserDirectory) *Service {
	return &Service{
		producer: producer,
		mailer:   mailer,
		users:    users,
		logger:   logger.GetDefault(),
	}
}

// SendOTP implements auth.OTPSender.
func (s *Service) SendOTP(ctx context.Context, email, otp string) {
	n := NewNotification(TypeOTP, email, map[string]string{"otp": otp})
	s.dispatch(ctx, n)
}

// PurchaseConfirmed implements seats.Notifier.
func (s *Service) PurchaseConfirmed(ctx context.Context, userID, seatID, txID string) {
	email, err := s.users.UserEmail(ctx, userID)
	if err != nil {
		s.logger.Warn("cannot resolve purchase recipient", "user_id", userID, "error", err.Error())
		return
	}

	n := NewNotification(TypePurchaseConfirmed, email, map[string]string{
		"seat_id": seatID,
		"tx_id":   txID,
	})
	s.dispatch(ctx, n)
}

func (s *Service) dispatch(ctx context.Context, n *Notification) {
	if s.producer != nil {
		if err := s.producer.Publish(n); err == nil {
			return
		} else {
			s.logger.Warn("kafka publish failed, falling back to direct send",
				"notification_id", n.ID, "error", err.Error())
		}
	}

	if s.mailer == nil {
		s.logger.Warn("dropping notification, no delivery channel", "notification_id", n.ID)
		return
	}
	if err := s.mailer.Send(ctx, n); err != nil {
		s.logger.Warn("direct send failed", "notification_id", n.ID, "error", err.Error())
	}
}
