package notifications

import (
	"context"
	"fmt"

	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/config"

	gomail "gopkg.in/gomail.v2"
)

// EmailSender delivers a notification as an email.
type EmailSender interface {
	Send(ctx context.Context, n *Notification) error
}

// Mailer is the SMTP implementation of EmailSender.
type Mailer struct {
	cfg config.EmailConfig
}

func NewMailer(cfg config.EmailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Send(ctx context.Context, n *Notification) error {
	if m.cfg.SMTPHost == "" {
		return fmt.Errorf("smtp host not configured")
	}

	subject, body := renderEmail(n)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.FromEmail)
	msg.SetHeader("To", n.Recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.SMTPUsername, m.cfg.SMTPPassword)

	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func renderEmail(n *Notification) (subject, body string) {
	switch n.Type {
	case TypeOTP:
		subject = "Your Tkitmaster verification code"
		body = fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", n.Data["otp"])
	case TypePurchaseConfirmed:
		subject = "Your Tkitmaster booking is confirmed"
		body = fmt.Sprintf("Seat %s is yours. Transaction reference: %s.", n.Data["seat_id"], n.Data["tx_id"])
	default:
		subject = "Tkitmaster notification"
		body = "You have a new notification."
	}
	return subject, body
}
