package memory

import (
	"context"
	"time"

	"LIBRA-backend/internal/platform/auth"
)

type accountStore struct{ s *Store }

// GetByID returns (nil, nil) for a missing id, like the MySQL store.
func (a accountStore) GetByID(ctx context.Context, id string) (*auth.Account, error) {
	var out *auth.Account
	err := a.s.view(ctx, func(st *state) error {
		if acct, ok := st.accounts[id]; ok {
			out = &acct
		}
		return nil
	})
	return out, err
}

func (a accountStore) Create(ctx context.Context, acct *auth.Account) error {
	return a.s.update(ctx, func(st *state) error {
		if _, ok := st.accounts[acct.ID]; ok {
			return auth.ErrAlreadyExists
		}
		if acct.CreatedAt.IsZero() {
			acct.CreatedAt = time.Now().UTC()
		}
		st.accounts[acct.ID] = *acct
		return nil
	})
}

func (a accountStore) Delete(ctx context.Context, id string) (int64, error) {
	var n int64
	err := a.s.update(ctx, func(st *state) error {
		if _, ok := st.accounts[id]; ok {
			delete(st.accounts, id)
			n = 1
		}
		return nil
	})
	return n, err
}
