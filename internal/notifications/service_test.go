package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	mu        sync.Mutex
	published []*Notification
	err       error
}

func (p *fakeProducer) Publish(n *Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, n)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

type fakeMailer struct {
	mu   sync.Mutex
	sent []*Notification
}

func (m *fakeMailer) Send(ctx context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

type fakeDirectory struct {
	emails map[string]string
}

func (d *fakeDirectory) UserEmail(ctx context.Context, userID string) (string, error) {
	email, ok := d.emails[userID]
	if !ok {
		return "", errors.New("unknown user")
	}
	return email, nil
}

func TestSendOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes through kafka when available", func(t *testing.T) {
		producer := &fakeProducer{}
		mailer := &fakeMailer{}
		svc := NewService(producer, mailer, &fakeDirectory{})

		svc.SendOTP(ctx, "alice@example.com", "123456")

		require.Len(t, producer.published, 1)
		n := producer.published[0]
		assert.Equal(t, TypeOTP, n.Type)
		assert.Equal(t, "alice@example.com", n.Recipient)
		assert.Equal(t, "123456", n.Data["otp"])
		assert.Empty(t, mailer.sent)
	})

	t.Run("falls back to direct delivery when kafka fails", func(t *testing.T) {
		producer := &fakeProducer{err: errors.New("broker down")}
		mailer := &fakeMailer{}
		svc := NewService(producer, mailer, &fakeDirectory{})

		svc.SendOTP(ctx, "alice@example.com", "123456")

		require.Len(t, mailer.sent, 1)
		assert.Equal(t, TypeOTP, mailer.sent[0].Type)
	})

	t.Run("delivers directly without a producer", func(t *testing.T) {
		mailer := &fakeMailer{}
		svc := NewService(nil, mailer, &fakeDirectory{})

		svc.SendOTP(ctx, "alice@example.com", "123456")

		require.Len(t, mailer.sent, 1)
	})
}

func TestPurchaseConfirmed(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the recipient through the directory", func(t *testing.T) {
		producer := &fakeProducer{}
		svc := NewService(producer, &fakeMailer{}, &fakeDirectory{
			emails: map[string]string{"user-1": "alice@example.com"},
		})

		svc.PurchaseConfirmed(ctx, "user-1", "A1", "tx_123")

		require.Len(t, producer.published, 1)
		n := producer.published[0]
		assert.Equal(t, TypePurchaseConfirmed, n.Type)
		assert.Equal(t, "alice@example.com", n.Recipient)
		assert.Equal(t, "A1", n.Data["seat_id"])
		assert.Equal(t, "tx_123", n.Data["tx_id"])
	})

	t.Run("drops silently for an unknown user", func(t *testing.T) {
		producer := &fakeProducer{}
		mailer := &fakeMailer{}
		svc := NewService(producer, mailer, &fakeDirectory{})

		svc.PurchaseConfirmed(ctx, "user-9", "A1", "tx_123")

		assert.Empty(t, producer.published)
		assert.Empty(t, mailer.sent)
	})
}

func TestRenderEmail(t *testing.T) {
	otp := NewNotification(TypeOTP, "alice@example.com", map[string]string{"otp": "123456"})
	subject, body := renderEmail(otp)
	assert.Contains(t, subject, "verification")
	assert.Contains(t, body, "123456")

	purchase := NewNotification(TypePurchaseConfirmed, "alice@example.com", map[string]string{
		"seat_id": "A1",
		"tx_id":   "tx_123",
	})
	subject, body = renderEmail(purchase)
	assert.Contains(t, subject, "confirmed")
	assert.Contains(t, body, "A1")
	assert.Contains(t, body, "tx_123")
}
