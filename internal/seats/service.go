package seats

import (
	"context"
	"errors"
	"fmt"

	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/config"
	"github.com/roomiesofficial522-svg/Tkitmaster/pkg/logger"

	"github.com/google/uuid"
)

// Errors surfaced by the reservation core.
var (
	// ErrSeatUnavailable: the seat is locked by another user or sold.
	ErrSeatUnavailable = errors.New("seat unavailable")
	// ErrLockExpiredOrStolen: purchase attempted without owning an active hold.
	ErrLockExpiredOrStolen = errors.New("lock expired or stolen")
)

// Notifier publishes best-effort purchase notifications. Never on the
// critical path: failures are logged and ignored.
type Notifier interface {
	PurchaseConfirmed(ctx context.Context, userID, seatID, txID string)
}

// Service is the reservation core. It owns every write to the hot seat keys
// and to the durable seat records; all cross-request coordination is
// delegated to the two stores.
type Service interface {
	Hold(ctx context.Context, seatID, userID string) error
	Release(ctx context.Context, seatID, userID string) error
	Purchase(ctx context.Context, idempotencyKey, seatID, userID string) (*Receipt, error)
	Snapshot(ctx context.Context) ([]SeatView, error)
	Reset(ctx context.Context) error
}

type service struct {
	repo     Repository
	cfg      config.ReservationConfig
	notifier Notifier
	logger   *logger.Logger
}

// NewService creates the reservation core. notifier may be nil.
func NewService(repo Repository, cfg config.ReservationConfig, notifier Notifier) Service {
	return &service{
		repo:     repo,
		cfg:      cfg,
		notifier: notifier,
		logger:   logger.GetDefault(),
	}
}

// Hold atomically claims a seat for a user. The seat must exist in the
// ledger; any current hot-state entry on the seat (including the caller's own
// lock) is a conflict. Re-acquisition requires release then hold.
func (s *service) Hold(ctx context.Context, seatID, userID string) error {
	seat, err := s.repo.GetSeat(ctx, seatID)
	if err != nil {
		return err
	}
	if seat.IsBooked() {
		return ErrSeatUnavailable
	}

	acquired, err := s.repo.AcquireHold(ctx, seatID, userID, s.cfg.HoldTTL)
	if err != nil {
		return fmt.Errorf("hold acquisition failed: %w", err)
	}
	if !acquired {
		return ErrSeatUnavailable
	}

	s.logger.LogHoldAcquired(ctx, seatID, userID)
	return nil
}

// Release drops the caller's hold if it is still theirs. Missing or foreign
// locks are a no-op; release never fails visibly because it races with TTL
// expiry and concurrent purchases on navigation events.
func (s *service) Release(ctx context.Context, seatID, userID string) error {
	if err := s.repo.ReleaseHold(ctx, seatID, userID); err != nil {
		// Benign: the TTL will reclaim the hold regardless.
		s.logger.Warn("release failed", "seat_id", seatID, "user_id", userID, "error", err.Error())
	}
	return nil
}

// Purchase promotes a hold to a permanent booking.
//
// Order matters: hold verification before the ledger write enforces
// holder-only purchase; the ledger commit before the SOLD finalize ensures
// the hot state never claims SOLD for an unbooked seat; the receipt write
// after the commit ensures no tx_id is handed out that the ledger does not
// back.
func (s *service) Purchase(ctx context.Context, idempotencyKey, seatID, userID string) (*Receipt, error) {
	// 1. Idempotency short-circuit.
	if raw, err := s.repo.Receipt(ctx, idempotencyKey); err == nil && raw != nil {
		return DecodeReceipt(raw)
	}

	// 2. Hold verification.
	val, err := s.repo.SeatValue(ctx, seatID)
	if err != nil {
		return nil, fmt.Errorf("hold verification failed: %w", err)
	}
	if val != LockedValue(userID) {
		return nil, ErrLockExpiredOrStolen
	}

	// 3/4. Durable transaction, bounded by the purchase timeout.
	txID := "tx_" + uuid.NewString()
	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()
	if err := s.repo.BookSeat(txCtx, seatID, userID, txID); err != nil {
		if errors.Is(err, ErrAlreadySold) {
			// A prior purchase succeeded but its receipt was not preserved.
			s.logger.LogOperatorAlert(ctx, "ledger shows booked seat without a receipt for this key", seatID, nil)
		}
		return nil, err
	}

	// 5. Finalize hot state. The booking is durably sold at this point; a
	// failure here leaves a stale LOCKED entry for the reconciliation sweep.
	if err := s.repo.FinalizeSold(ctx, seatID); err != nil {
		s.logger.LogOperatorAlert(ctx, "failed to finalize SOLD marker after commit", seatID, err)
	}

	// 6. Publish receipt (write-once; first writer wins).
	receipt, err := EncodeReceipt(txID)
	if err != nil {
		return nil, fmt.Errorf("failed to encode receipt: %w", err)
	}
	if _, err := s.repo.PutReceiptNX(ctx, idempotencyKey, receipt.Raw(), s.cfg.ReceiptTTL); err != nil {
		s.logger.LogOperatorAlert(ctx, "failed to store receipt after commit", seatID, err)
	}
	// Return the stored bytes so retries observe identical receipts even if a
	// concurrent call won the write race.
	if raw, err := s.repo.Receipt(ctx, idempotencyKey); err == nil && raw != nil {
		receipt, err = DecodeReceipt(raw)
		if err != nil {
			return nil, fmt.Errorf("stored receipt is corrupt: %w", err)
		}
	}

	s.logger.LogPurchaseCompleted(ctx, seatID, userID, receipt.TxID)

	if s.notifier != nil {
		s.notifier.PurchaseConfirmed(ctx, userID, seatID, receipt.TxID)
	}

	return receipt, nil
}

// Snapshot merges the hot-state overlay onto the ledger. The ledger wins for
// booked seats; a hot-state failure degrades the view to ledger-only.
func (s *service) Snapshot(ctx context.Context) ([]SeatView, error) {
	seats, err := s.repo.ListSeats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read seat records: %w", err)
	}

	states, err := s.repo.SeatStates(ctx)
	if err != nil {
		s.logger.Warn("snapshot degraded to ledger-only", "error", err.Error())
		states = nil
	}

	views := make([]SeatView, 0, len(seats))
	for _, seat := range seats {
		view := SeatView{
			ID:     seat.SeatID,
			Row:    seat.Row,
			Number: seat.Number,
			Tier:   seat.Tier,
			Price:  seat.Price,
			State:  StateAvailable,
		}

		switch {
		case seat.IsBooked():
			view.State = StateBooked
		default:
			if state, ok := states[seat.SeatID]; ok {
				if IsSold(state.Value) {
					view.State = StateBooked
				} else if holder, ok := LockHolder(state.Value); ok {
					view.State = StateLocked
					view.LockedBy = holder
					view.TTL = int(state.TTL.Seconds())
				}
			}
		}

		views = append(views, view)
	}

	return views, nil
}

// Reset clears all volatile state and returns every seat to available.
func (s *service) Reset(ctx context.Context) error {
	if err := s.repo.FlushHotState(ctx); err != nil {
		return fmt.Errorf("failed to clear hot state: %w", err)
	}
	if err := s.repo.ResetSeats(ctx); err != nil {
		return fmt.Errorf("failed to reset seat records: %w", err)
	}
	return nil
}
