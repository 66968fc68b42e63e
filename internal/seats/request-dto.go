package seats

// LockRequest is the body of POST /api/lock.
type LockRequest struct {
	SeatID string `json:"seatId" binding:"required"`
}

// ReleaseRequest is the body of POST /api/release. Release is unauthenticated
// (fired on navigation events), so the user id travels in the body.
type ReleaseRequest struct {
	SeatID string `json:"seatId" binding:"required"`
	UserID string `json:"userId" binding:"required"`
}

// PayRequest is the body of POST /api/pay. The acting user comes from the
// bearer token, never from the body.
type PayRequest struct {
	IdempotencyKey string `json:"idempotencyKey" binding:"required"`
	SeatID         string `json:"seatId" binding:"required"`
}
