package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput      = errors.New("invalid input")      // 400
	ErrNotFound          = errors.New("not found")          // 404
	ErrForbidden         = errors.New("forbidden")          // 403
	ErrInvalidState      = errors.New("invalid state")      // 400
	ErrInsufficientStock = errors.New("insufficient stock") // 400
	ErrStorage           = errors.New("storage failure")    // 503
	ErrConflict          = errors.New("conflict")           // 409
)

const (
	KindInvalidInput      = "invalid_input"
	KindNotFound          = "not_found"
	KindForbidden         = "forbidden"
	KindInvalidState      = "invalid_state"
	KindInsufficientStock = "insufficient_stock"
	KindStorage           = "storage_failure"
	KindConflict          = "conflict"
)

// StockError names the first cart line whose product cannot cover it.
type StockError struct {
	Product   string
	ProductID uuid.UUID
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: available %d, requested %d", e.Product, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// Kind maps err onto its taxonomy kind. Unclassified errors count as storage failures.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindStorage
	}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
