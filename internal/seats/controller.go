package seats

import (
	"errors"
	"net/http"

	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/middleware"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

// Controller is the thin HTTP dispatch layer over the reservation core.
type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// List handles GET /api/seats: the merged snapshot for UI polling.
func (c *Controller) List(ctx *gin.Context) {
	views, err := c.service.Snapshot(ctx.Request.Context())
	if err != nil {
		response.Error(ctx, http.StatusInternalServerError, "failed to load seats")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"seats": views})
}

// Lock handles POST /api/lock: acquire a time-bounded exclusive hold.
func (c *Controller) Lock(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "authentication required")
		return
	}

	var req LockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "invalid request body")
		return
	}

	err := c.service.Hold(ctx.Request.Context(), req.SeatID, userID)
	switch {
	case err == nil:
		response.Success(ctx, http.StatusOK, nil)
	case errors.Is(err, ErrSeatUnavailable):
		response.Failure(ctx, http.StatusConflict, "Seat Unavailable")
	case errors.Is(err, ErrSeatNotFound):
		response.Error(ctx, http.StatusBadRequest, "unknown seat")
	default:
		response.Error(ctx, http.StatusInternalServerError, "failed to lock seat")
	}
}

// Release handles POST /api/release. Always succeeds for well-formed input.
func (c *Controller) Release(ctx *gin.Context) {
	var req ReleaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "invalid request body")
		return
	}

	_ = c.service.Release(ctx.Request.Context(), req.SeatID, req.UserID)
	response.Success(ctx, http.StatusOK, nil)
}

// Pay handles POST /api/pay: the two-phase purchase. The stored receipt bytes
// are returned verbatim so retries observe identical responses.
func (c *Controller) Pay(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		response.Error(ctx, http.StatusUnauthorized, "authentication required")
		return
	}

	var req PayRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "invalid request body")
		return
	}

	receipt, err := c.service.Purchase(ctx.Request.Context(), req.IdempotencyKey, req.SeatID, userID)
	switch {
	case err == nil:
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", receipt.Raw())
	case errors.Is(err, ErrLockExpiredOrStolen):
		response.Failure(ctx, http.StatusBadRequest, "Lock expired or stolen")
	case errors.Is(err, ErrSeatNotFound):
		response.Error(ctx, http.StatusBadRequest, "unknown seat")
	case errors.Is(err, ErrAlreadySold):
		response.Failure(ctx, http.StatusInternalServerError, "Seat already sold")
	default:
		response.Error(ctx, http.StatusInternalServerError, "payment failed")
	}
}

// Reset handles POST /api/reset: clears all volatile state and returns every
// seat to available. Development and demonstration only.
func (c *Controller) Reset(ctx *gin.Context) {
	if err := c.service.Reset(ctx.Request.Context()); err != nil {
		response.Error(ctx, http.StatusInternalServerError, "reset failed")
		return
	}
	response.Success(ctx, http.StatusOK, nil)
}
