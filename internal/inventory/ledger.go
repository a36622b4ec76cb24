// Package inventory owns titles.available_copies. Every mutation goes through
// Decrement, Increment or Set, each of which re-reads the count under a row
// lock inside the caller's transaction.
package inventory

import (
	"context"

	"LIBRA-backend/internal/platform/apierr"
)

// Tx is the part of a storage transaction the ledger needs.
type Tx interface {
	// LockAvailable reads available_copies and holds the row until the transaction ends.
	LockAvailable(ctx context.Context, titleID int64) (int, error)
	// AddAvailable applies delta to available_copies of an already locked row.
	AddAvailable(ctx context.Context, titleID int64, delta int) error
}

// Reader is the unlocked read side.
type Reader interface {
	Available(ctx context.Context, titleID int64) (int, error)
}

func ErrTitleNotFound() *apierr.APIError { return apierr.ErrNotFound("title not found") }

func ErrOutOfStock() *apierr.APIError {
	return apierr.New(apierr.CodeOutOfStock, "no available copies")
}

func CheckAvailable(ctx context.Context, r Reader, titleID int64) (int, error) {
	if titleID <= 0 {
		return 0, apierr.ErrInvalid("title_id must be > 0")
	}
	return r.Available(ctx, titleID)
}

// Decrement takes one copy out of stock. It fails with OUT_OF_STOCK when the
// locked count is already zero, whatever an earlier unlocked read said.
func Decrement(ctx context.Context, tx Tx, titleID int64) error {
	n, err := tx.LockAvailable(ctx, titleID)
	if err != nil {
		return err
	}
	if n <= 0 {
		return ErrOutOfStock()
	}
	return tx.AddAvailable(ctx, titleID, -1)
}

// Increment puts one copy back. There is no ceiling: total owned stock is not modelled.
func Increment(ctx context.Context, tx Tx, titleID int64) error {
	if _, err := tx.LockAvailable(ctx, titleID); err != nil {
		return err
	}
	return tx.AddAvailable(ctx, titleID, 1)
}

// Set overwrites the count (admin stock adjustment) and returns the previous value.
func Set(ctx context.Context, tx Tx, titleID int64, n int) (int, error) {
	if n < 0 {
		return 0, apierr.ErrInvalid("available_copies must be >= 0")
	}
	cur, err := tx.LockAvailable(ctx, titleID)
	if err != nil {
		return 0, err
	}
	if cur == n {
		return cur, nil
	}
	return cur, tx.AddAvailable(ctx, titleID, n-cur)
}
