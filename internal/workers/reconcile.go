package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/roomiesofficial522-svg/Tkitmaster/internal/seats"
	"github.com/roomiesofficial522-svg/Tkitmaster/pkg/logger"
)

// Reconciler closes the window between the ledger commit and the hot-state
// finalize: a crash after commit can leave a booked seat whose hot-state key
// is still LOCKED or absent. The sweep reads the ledger and rewrites the SOLD
// marker for any such seat.
type Reconciler struct {
	repo     seats.Repository
	interval time.Duration
	logger   *logger.Logger
}

func NewReconciler(repo seats.Repository, interval time.Duration) *Reconciler {
	return &Reconciler{
		repo:     repo,
		interval: interval,
		logger:   logger.GetDefault(),
	}
}

// Run sweeps on a ticker until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				r.logger.Warn("reconciliation sweep failed", "error", err.Error())
			}
		}
	}
}

// Sweep performs one pass. Returns the first hard error; individual seat
// repairs are logged and do not stop the pass.
func (r *Reconciler) Sweep(ctx context.Context) error {
	booked, err := r.repo.ListBookedSeats(ctx)
	if err != nil {
		return fmt.Errorf("failed to list booked seats: %w", err)
	}

	for _, seat := range booked {
		val, err := r.repo.SeatValue(ctx, seat.SeatID)
		if err != nil {
			r.logger.Warn("reconcile read failed", "seat_id", seat.SeatID, "error", err.Error())
			continue
		}
		if seats.IsSold(val) {
			continue
		}

		if err := r.repo.FinalizeSold(ctx, seat.SeatID); err != nil {
			r.logger.Warn("reconcile finalize failed", "seat_id", seat.SeatID, "error", err.Error())
			continue
		}
		r.logger.Info("reconciled SOLD marker", "seat_id", seat.SeatID)
	}

	return nil
}
