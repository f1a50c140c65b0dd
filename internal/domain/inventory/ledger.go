package inventory

import (
	"errors"
	"time"
)

var (
	ErrInvalidSku      = errors.New("sku id must not be empty")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// LedgerEntry is the durable per-SKU counter row. Quantity only ever moves
// between the three buckets; every transition conserves the sum, which the
// repository enforces with conditional updates on the same row.
type LedgerEntry struct {
	SkuID     string
	Available int64
	Reserved  int64
	Sold      int64
	Version   int64 // optimistic locking
	UpdatedAt time.Time
}

// NewLedgerEntry validates and builds a fresh entry with all stock available.
func NewLedgerEntry(skuID string, available int64, now time.Time) (*LedgerEntry, error) {
	if skuID == "" {
		return nil, ErrInvalidSku
	}
	if available < 0 {
		return nil, ErrInvalidQuantity
	}
	return &LedgerEntry{
		SkuID:     skuID,
		Available: available,
		Version:   1,
		UpdatedAt: now,
	}, nil
}
