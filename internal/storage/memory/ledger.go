package memory

import (
	"context"

	"LIBRA-backend/internal/inventory"
	"LIBRA-backend/internal/platform/apierr"
)

// tx is one transaction's view of the cloned state. There is no row locking:
// the store mutex already serialises whole transactions.
type tx struct {
	st *state
}

func (t tx) LockAvailable(_ context.Context, titleID int64) (int, error) {
	b, ok := t.st.titles[titleID]
	if !ok {
		return 0, inventory.ErrTitleNotFound()
	}
	return b.AvailableCopies, nil
}

func (t tx) AddAvailable(_ context.Context, titleID int64, delta int) error {
	b, ok := t.st.titles[titleID]
	if !ok {
		return inventory.ErrTitleNotFound()
	}
	if b.AvailableCopies+delta < 0 {
		return inventory.ErrOutOfStock()
	}
	b.AvailableCopies += delta
	t.st.titles[titleID] = b
	return nil
}

type inventoryStore struct{ s *Store }

func (i inventoryStore) Available(ctx context.Context, titleID int64) (int, error) {
	var n int
	err := i.s.view(ctx, func(st *state) error {
		var err error
		n, err = tx{st: st}.LockAvailable(ctx, titleID)
		return err
	})
	return n, err
}

func (i inventoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx inventory.Tx) error) error {
	err := i.s.update(ctx, func(st *state) error {
		return fn(ctx, tx{st: st})
	})
	return apierr.AsTxFailure(err)
}
