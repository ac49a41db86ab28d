package services

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidState      = errors.New("invalid state")
	ErrCartEmpty         = errors.New("cart is empty")
	ErrTransaction       = errors.New("transaction failed")
)

// StockError reports which product could not cover the requested quantity.
type StockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (requested %d, available %d)", e.ProductName, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

// TxError wraps an unexpected failure inside an atomic workflow. The
// transaction has been rolled back when it is returned.
type TxError struct {
	Op  string
	Err error
}

func (e *TxError) Error() string { return e.Op + ": " + ErrTransaction.Error() + ": " + e.Err.Error() }

func (e *TxError) Unwrap() error { return e.Err }

func (e *TxError) Is(target error) bool { return target == ErrTransaction }

// expected reports whether err is one of the workflow's own outcomes rather
// than an infrastructure failure.
func expected(err error) bool {
	for _, target := range []error{ErrNotFound, ErrInvalidArgument, ErrInsufficientStock, ErrInvalidState, ErrCartEmpty} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
