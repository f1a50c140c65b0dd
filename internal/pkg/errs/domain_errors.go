package errs

import "errors"

// Domain-specific sentinel errors for the reservation lifecycle
var (
	// Ledger errors
	ErrSkuNotFound       = errors.New("sku not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	// Reservation errors
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReservationExists   = errors.New("reservation already exists")
	ErrInvalidState        = errors.New("invalid reservation state")
	ErrInvalidQuantity     = errors.New("quantity must be positive")

	// Outbox errors
	ErrOutboxEventNotFound = errors.New("outbox event not found")
	ErrPublishFailure      = errors.New("event publish failure")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
