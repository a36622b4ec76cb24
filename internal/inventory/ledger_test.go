package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/inventory"
	"LIBRA-backend/internal/platform/apierr"
)

type txMock struct {
	lockFn func(ctx context.Context, titleID int64) (int, error)
	addFn  func(ctx context.Context, titleID int64, delta int) error
}

func (m *txMock) LockAvailable(ctx context.Context, titleID int64) (int, error) {
	return m.lockFn(ctx, titleID)
}
func (m *txMock) AddAvailable(ctx context.Context, titleID int64, delta int) error {
	return m.addFn(ctx, titleID, delta)
}

// counter returns a mock holding n copies of title 1.
func counter(n *int) *txMock {
	return &txMock{
		lockFn: func(ctx context.Context, titleID int64) (int, error) {
			if titleID != 1 {
				return 0, inventory.ErrTitleNotFound()
			}
			return *n, nil
		},
		addFn: func(ctx context.Context, titleID int64, delta int) error {
			*n += delta
			return nil
		},
	}
}

func TestDecrement(t *testing.T) {
	ctx := context.Background()
	n := 1
	tx := counter(&n)

	require.NoError(t, inventory.Decrement(ctx, tx, 1))
	assert.Equal(t, 0, n)

	err := inventory.Decrement(ctx, tx, 1)
	assert.True(t, apierr.Is(err, apierr.CodeOutOfStock))
	assert.Equal(t, 0, n)

	err = inventory.Decrement(ctx, tx, 2)
	assert.True(t, apierr.Is(err, apierr.CodeNotFound))
}

func TestIncrement(t *testing.T) {
	ctx := context.Background()
	n := 0
	tx := counter(&n)

	require.NoError(t, inventory.Increment(ctx, tx, 1))
	require.NoError(t, inventory.Increment(ctx, tx, 1))
	assert.Equal(t, 2, n)

	assert.True(t, apierr.Is(inventory.Increment(ctx, tx, 2), apierr.CodeNotFound))
}

func TestSet(t *testing.T) {
	ctx := context.Background()
	n := 3
	tx := counter(&n)

	prev, err := inventory.Set(ctx, tx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, prev)
	assert.Equal(t, 5, n)

	prev, err = inventory.Set(ctx, tx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, prev)
	assert.Equal(t, 0, n)

	_, err = inventory.Set(ctx, tx, 1, -1)
	assert.True(t, apierr.Is(err, apierr.CodeInvalidArgument))
	assert.Equal(t, 0, n)
}

type readerFn func(ctx context.Context, titleID int64) (int, error)

func (f readerFn) Available(ctx context.Context, titleID int64) (int, error) { return f(ctx, titleID) }

func TestCheckAvailable(t *testing.T) {
	r := readerFn(func(ctx context.Context, titleID int64) (int, error) { return 4, nil })

	n, err := inventory.CheckAvailable(context.Background(), r, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = inventory.CheckAvailable(context.Background(), r, 0)
	assert.True(t, apierr.Is(err, apierr.CodeInvalidArgument))
}

func TestSQLStoreIsStore(t *testing.T) {
	var s inventory.Store = inventory.NewStore(nil)
	assert.NotNil(t, s)
}
