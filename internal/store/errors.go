package store

import "errors"

var (
	// ErrNotFound is returned for unknown hat ids. A second removal
	// of the same id reports this too, it never panics.
	ErrNotFound = errors.New("hat not found")

	// ErrInsufficientFunds rejects a debit that would drive the
	// balance negative. The ledger is left unchanged.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientStock rejects a purchase of more units than the
	// catalog holds.
	ErrInsufficientStock = errors.New("insufficient stock")
)
