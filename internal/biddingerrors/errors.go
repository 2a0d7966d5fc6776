package biddingerrors

import "errors"

// Repository-level errors
var (
	ErrLotNotFound = errors.New("lot not found")
)

// business logic errors
var (
	ErrInvalidBid  = errors.New("invalid bid")
	ErrBidTooLow   = errors.New("bid amount below base price")
	ErrInvalidLot  = errors.New("invalid lot")
	ErrMissingName = errors.New("name is required")
)

// session errors
var (
	ErrSessionNotFound = errors.New("session not found")
)
