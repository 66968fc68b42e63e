package seats

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Seat status values in the durable ledger. A seat only ever moves from
// available to booked; booked is terminal outside an admin reset.
const (
	StatusAvailable = "available"
	StatusBooked    = "booked"
)

// Seat tiers
const (
	TierVIP      = "vip"
	TierPremium  = "premium"
	TierStandard = "standard"
)

// Snapshot states as exposed to clients
const (
	StateAvailable = "available"
	StateLocked    = "locked"
	StateBooked    = "booked"
)

// Seat is the durable ledger record for one admission.
type Seat struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"-"`
	SeatID    string     `gorm:"uniqueIndex;not null" json:"id"`
	Row       string     `gorm:"not null" json:"row"`
	Number    int        `gorm:"not null" json:"number"`
	Tier      string     `gorm:"type:varchar(16);check:tier IN ('vip','premium','standard');not null" json:"tier"`
	Price     int64      `gorm:"not null" json:"price"` // currency minor units
	Status    string     `gorm:"type:varchar(16);check:status IN ('available','booked');default:'available'" json:"status"`
	UserID    *string    `json:"user_id,omitempty"`
	TxID      *string    `json:"tx_id,omitempty"`
	BookedAt  *time.Time `json:"booked_at,omitempty"`
	CreatedAt time.Time  `json:"-"`
	UpdatedAt time.Time  `json:"-"`
}

// TableName sets the table name for Seat
func (Seat) TableName() string {
	return "seats"
}

func (s *Seat) IsBooked() bool {
	return s.Status == StatusBooked
}

// SeatView is one entry of the merged HSS-over-DRS snapshot.
type SeatView struct {
	ID       string `json:"id"`
	Row      string `json:"row"`
	Number   int    `json:"number"`
	Tier     string `json:"tier"`
	Price    int64  `json:"price"`
	State    string `json:"state"`
	LockedBy string `json:"lockedBy,omitempty"`
	TTL      int    `json:"ttl,omitempty"` // remaining hold seconds
}

// Receipt is the stable result of a successful purchase. The serialized form
// stored under the idempotency key is the canonical representation; every
// retry for the same key returns those exact bytes.
type Receipt struct {
	Success bool   `json:"success"`
	TxID    string `json:"txId"`

	raw []byte
}

// Raw returns the canonical serialized receipt.
func (r *Receipt) Raw() []byte {
	return r.raw
}

// DecodeReceipt parses a stored receipt, keeping the original bytes.
func DecodeReceipt(raw []byte) (*Receipt, error) {
	var r Receipt
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	r.raw = raw
	return &r, nil
}

// EncodeReceipt serializes a receipt and fixes its canonical bytes.
func EncodeReceipt(txID string) (*Receipt, error) {
	r := &Receipt{Success: true, TxID: txID}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	r.raw = raw
	return r, nil
}

// Hot-state key layout.
//
//	seat:{seat_id}    -> "LOCKED:{user_id}" (TTL) | "SOLD" (persistent)
//	receipt:{idemkey} -> serialized receipt (TTL)
const (
	seatKeyPrefix    = "seat:"
	receiptKeyPrefix = "receipt:"
	lockedPrefix     = "LOCKED:"
	soldValue        = "SOLD"
)

// SeatKey returns the hot-state key for a seat.
func SeatKey(seatID string) string {
	return seatKeyPrefix + seatID
}

// ReceiptKey returns the hot-state key for an idempotency receipt.
func ReceiptKey(idempotencyKey string) string {
	return receiptKeyPrefix + idempotencyKey
}

// LockedValue encodes a LOCKED entry for a holder.
func LockedValue(userID string) string {
	return lockedPrefix + userID
}

// IsSold reports whether a hot-state value marks a sold seat.
func IsSold(value string) bool {
	return value == soldValue
}

// LockHolder extracts the holder from a LOCKED hot-state value.
func LockHolder(value string) (string, bool) {
	if !strings.HasPrefix(value, lockedPrefix) {
		return "", false
	}
	return strings.TrimPrefix(value, lockedPrefix), true
}
