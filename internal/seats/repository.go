package seats

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Errors surfaced by the repository layer.
var (
	ErrSeatNotFound = errors.New("seat not found")
	ErrAlreadySold  = errors.New("seat already sold")
)

// Repository combines the durable ledger (PostgreSQL) and the hot state
// (Redis) behind one interface so the service can be tested against fakes.
type Repository interface {
	// Durable ledger
	ListSeats(ctx context.Context) ([]Seat, error)
	GetSeat(ctx context.Context, seatID string) (*Seat, error)
	BookSeat(ctx context.Context, seatID, userID, txID string) error
	ListBookedSeats(ctx context.Context) ([]Seat, error)
	ResetSeats(ctx context.Context) error
	UpsertSeats(ctx context.Context, seats []Seat) error

	// Hot seat state
	AcquireHold(ctx context.Context, seatID, userID string, ttl time.Duration) (bool, error)
	ReleaseHold(ctx context.Context, seatID, userID string) error
	SeatValue(ctx context.Context, seatID string) (string, error)
	FinalizeSold(ctx context.Context, seatID string) error
	SeatStates(ctx context.Context) (map[string]SeatState, error)
	FlushHotState(ctx context.Context) error

	// Idempotency receipts
	Receipt(ctx context.Context, idempotencyKey string) ([]byte, error)
	PutReceiptNX(ctx context.Context, idempotencyKey string, payload []byte, ttl time.Duration) (bool, error)
}

type repository struct {
	db     *gorm.DB
	atomic *AtomicSeatOps
}

func NewRepository(db *gorm.DB, redisClient *redis.Client) Repository {
	return &repository{
		db:     db,
		atomic: NewAtomicSeatOps(redisClient),
	}
}

// DURABLE LEDGER

func (r *repository) ListSeats(ctx context.Context) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Order("row ASC, number ASC").
		Find(&seats).Error
	return seats, err
}

func (r *repository) GetSeat(ctx context.Context, seatID string) (*Seat, error) {
	var seat Seat
	err := r.db.WithContext(ctx).Where("seat_id = ?", seatID).First(&seat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSeatNotFound
	}
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

// BookSeat promotes a seat to booked inside a single transaction. The row is
// locked for the duration; a seat that is already booked aborts with
// ErrAlreadySold and no write occurs.
func (r *repository) BookSeat(ctx context.Context, seatID, userID, txID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seat Seat
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("seat_id = ?", seatID).
			First(&seat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSeatNotFound
		}
		if err != nil {
			return err
		}

		if seat.IsBooked() {
			return ErrAlreadySold
		}

		now := time.Now().UTC()
		res := tx.Model(&Seat{}).
			Where("seat_id = ? AND status = ?", seatID, StatusAvailable).
			Updates(map[string]interface{}{
				"status":    StatusBooked,
				"user_id":   userID,
				"tx_id":     txID,
				"booked_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrAlreadySold
		}
		return nil
	})
}

func (r *repository) ListBookedSeats(ctx context.Context) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusBooked).
		Find(&seats).Error
	return seats, err
}

func (r *repository) ResetSeats(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&Seat{}).
		Where("1 = 1").
		Updates(map[string]interface{}{
			"status":    StatusAvailable,
			"user_id":   nil,
			"tx_id":     nil,
			"booked_at": nil,
		}).Error
}

func (r *repository) UpsertSeats(ctx context.Context, seats []Seat) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "seat_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"row", "number", "tier", "price"}),
		}).
		Create(&seats).Error
}

// HOT SEAT STATE

func (r *repository) AcquireHold(ctx context.Context, seatID, userID string, ttl time.Duration) (bool, error) {
	return r.atomic.AcquireHold(ctx, seatID, userID, ttl)
}

func (r *repository) ReleaseHold(ctx context.Context, seatID, userID string) error {
	return r.atomic.ReleaseHold(ctx, seatID, userID)
}

func (r *repository) SeatValue(ctx context.Context, seatID string) (string, error) {
	return r.atomic.SeatValue(ctx, seatID)
}

func (r *repository) FinalizeSold(ctx context.Context, seatID string) error {
	return r.atomic.FinalizeSold(ctx, seatID)
}

func (r *repository) SeatStates(ctx context.Context) (map[string]SeatState, error) {
	return r.atomic.SeatStates(ctx)
}

func (r *repository) FlushHotState(ctx context.Context) error {
	return r.atomic.FlushAll(ctx)
}

// RECEIPTS

func (r *repository) Receipt(ctx context.Context, idempotencyKey string) ([]byte, error) {
	return r.atomic.Receipt(ctx, idempotencyKey)
}

func (r *repository) PutReceiptNX(ctx context.Context, idempotencyKey string, payload []byte, ttl time.Duration) (bool, error) {
	return r.atomic.PutReceiptNX(ctx, idempotencyKey, payload, ttl)
}
