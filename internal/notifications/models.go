package notifications

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType discriminates the event payloads on the wire.
type NotificationType string

const (
	TypeOTP               NotificationType = "otp"
	TypePurchaseConfirmed NotificationType = "purchase_confirmed"
)

// Notification is the message published to Kafka and consumed by the email
// worker. Recipient is an email address; Data carries type-specific fields.
type Notification struct {
	ID        string            `json:"id"`
	Type      NotificationType  `json:"type"`
	Recipient string            `json:"recipient"`
	Data      map[string]string `json:"data"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewNotification creates a notification with a fresh id.
func NewNotification(t NotificationType, recipient string, data map[string]string) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		Type:      t,
		Recipient: recipient,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}
