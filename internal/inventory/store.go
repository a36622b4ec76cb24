package inventory

import (
	"context"
	"database/sql"
	"errors"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

// SQLTx implements Tx and Reader on top of a MySQL connection or transaction.
// LockAvailable only locks when q is a *sql.Tx.
type SQLTx struct {
	q db.DBTX
}

func NewSQLTx(q db.DBTX) SQLTx { return SQLTx{q: q} }

// lock inventory row (titles) by title id
func (s SQLTx) LockAvailable(ctx context.Context, titleID int64) (int, error) {
	const q = `SELECT available_copies FROM titles WHERE title_id = ? FOR UPDATE`
	var n int
	if err := s.q.QueryRowContext(ctx, q, titleID).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTitleNotFound()
		}
		return 0, err
	}
	return n, nil
}

func (s SQLTx) AddAvailable(ctx context.Context, titleID int64, delta int) error {
	// 負数にならないことをDB側でも保証（0件更新 = 在庫不足）
	const q = `
		UPDATE titles
		SET available_copies = available_copies + ?
		WHERE title_id = ?
		AND available_copies + ? >= 0`
	res, err := s.q.ExecContext(ctx, q, delta, titleID, delta)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff != 1 {
		return ErrOutOfStock()
	}
	return nil
}

func (s SQLTx) Available(ctx context.Context, titleID int64) (int, error) {
	const q = `SELECT available_copies FROM titles WHERE title_id = ?`
	var n int
	if err := s.q.QueryRowContext(ctx, q, titleID).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTitleNotFound()
		}
		return 0, err
	}
	return n, nil
}

// SQLStore is the MySQL-backed ledger used by Service.
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

func NewStore(conn *sql.DB) *SQLStore { return &SQLStore{db: conn} }

func (s *SQLStore) Available(ctx context.Context, titleID int64) (int, error) {
	return NewSQLTx(s.db).Available(ctx, titleID)
}

func (s *SQLStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, q db.DBTX) error {
		return fn(ctx, NewSQLTx(q))
	})
	return apierr.AsTxFailure(err)
}
