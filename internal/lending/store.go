package lending

import (
	"context"
	"database/sql"
	"errors"

	"LIBRA-backend/internal/inventory"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

// Tx is one storage transaction. Lock* methods hold the row until commit or rollback.
type Tx interface {
	inventory.Tx

	HasPendingRequest(ctx context.Context, requesterID string, titleID int64) (bool, error)
	InsertRequest(ctx context.Context, r *BorrowRequest) error
	LockRequest(ctx context.Context, k Key) (*BorrowRequest, error)
	UpdateRequest(ctx context.Context, r *BorrowRequest) error
	DeleteRequest(ctx context.Context, requestID int64) error

	HasRecord(ctx context.Context, requestID int64) (bool, error)
	InsertRecord(ctx context.Context, r *BorrowRecord) error
	LockRecord(ctx context.Context, k Key) (*BorrowRecord, error)
	UpdateRecord(ctx context.Context, r *BorrowRecord) error
}

type Store interface {
	// WithinTx commits when fn returns nil and rolls back otherwise.
	// Non-domain failures surface as TRANSACTION_FAILURE.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	ListRequests(ctx context.Context, f RequestFilter, p db.Page) ([]RequestView, int64, error)
	GetRequest(ctx context.Context, k Key) (*RequestView, error)
	ListRecords(ctx context.Context, f RecordFilter, p db.Page) ([]RecordView, int64, error)
	GetRecord(ctx context.Context, k Key) (*RecordView, error)
}

const (
	requestCols = `request_id, request_ulid, requester_id, title_id, status, created_at, approver_id, approved_at`
	recordCols  = `record_id, record_ulid, request_id, requester_id, title_id, borrow_date, due_date, return_date, status`
)

type sqlTx struct {
	inventory.SQLTx
	q db.DBTX
}

func newSQLTx(q db.DBTX) sqlTx { return sqlTx{SQLTx: inventory.NewSQLTx(q), q: q} }

func keyWhere(idCol, ulidCol string, k Key) (string, any) {
	if k.ULID != "" {
		return ulidCol + " = ?", k.ULID
	}
	return idCol + " = ?", k.ID
}

func (t sqlTx) HasPendingRequest(ctx context.Context, requesterID string, titleID int64) (bool, error) {
	// 呼び出し側で titles 行をロック済みなので、ここは通常の読み取りで最新が見える
	const q = `
		SELECT EXISTS(
			SELECT 1 FROM borrow_requests
			WHERE requester_id = ? AND title_id = ? AND status = 'pending'
		)`
	var ok bool
	if err := t.q.QueryRowContext(ctx, q, requesterID, titleID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (t sqlTx) InsertRequest(ctx context.Context, r *BorrowRequest) error {
	const q = `
		INSERT INTO borrow_requests (request_ulid, requester_id, title_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)`
	res, err := t.q.ExecContext(ctx, q, r.RequestULID, r.RequesterID, r.TitleID, string(r.Status), r.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.RequestID = id
	return nil
}

func (t sqlTx) LockRequest(ctx context.Context, k Key) (*BorrowRequest, error) {
	where, arg := keyWhere("request_id", "request_ulid", k)
	q := `SELECT ` + requestCols + ` FROM borrow_requests WHERE ` + where + ` FOR UPDATE`
	var r BorrowRequest
	err := t.q.QueryRowContext(ctx, q, arg).Scan(
		&r.RequestID, &r.RequestULID, &r.RequesterID, &r.TitleID,
		&r.Status, &r.CreatedAt, &r.ApproverID, &r.ApprovedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound()
		}
		return nil, err
	}
	return &r, nil
}

func (t sqlTx) UpdateRequest(ctx context.Context, r *BorrowRequest) error {
	const q = `
		UPDATE borrow_requests
		SET status = ?, approver_id = ?, approved_at = ?
		WHERE request_id = ?`
	_, err := t.q.ExecContext(ctx, q, string(r.Status), r.ApproverID, r.ApprovedAt, r.RequestID)
	return err
}

func (t sqlTx) DeleteRequest(ctx context.Context, requestID int64) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM borrow_requests WHERE request_id = ?`, requestID)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return ErrRequestNotFound()
	}
	return nil
}

func (t sqlTx) HasRecord(ctx context.Context, requestID int64) (bool, error) {
	var ok bool
	err := t.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM borrow_records WHERE request_id = ?)`, requestID).Scan(&ok)
	return ok, err
}

func (t sqlTx) InsertRecord(ctx context.Context, r *BorrowRecord) error {
	const q = `
		INSERT INTO borrow_records
			(record_ulid, request_id, requester_id, title_id, borrow_date, due_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := t.q.ExecContext(ctx, q,
		r.RecordULID, r.RequestID, r.RequesterID, r.TitleID, r.BorrowDate, r.DueDate, string(r.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.RecordID = id
	return nil
}

func (t sqlTx) LockRecord(ctx context.Context, k Key) (*BorrowRecord, error) {
	where, arg := keyWhere("record_id", "record_ulid", k)
	q := `SELECT ` + recordCols + ` FROM borrow_records WHERE ` + where + ` FOR UPDATE`
	var r BorrowRecord
	err := t.q.QueryRowContext(ctx, q, arg).Scan(
		&r.RecordID, &r.RecordULID, &r.RequestID, &r.RequesterID, &r.TitleID,
		&r.BorrowDate, &r.DueDate, &r.ReturnDate, &r.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound()
		}
		return nil, err
	}
	return &r, nil
}

func (t sqlTx) UpdateRecord(ctx context.Context, r *BorrowRecord) error {
	const q = `
		UPDATE borrow_records
		SET due_date = ?, return_date = ?, status = ?
		WHERE record_id = ?`
	_, err := t.q.ExecContext(ctx, q, r.DueDate, r.ReturnDate, string(r.Status), r.RecordID)
	return err
}

func (s *SQLStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	err := db.RunInTx(ctx, s.conn, nil, func(ctx context.Context, q db.DBTX) error {
		return fn(ctx, newSQLTx(q))
	})
	return apierr.AsTxFailure(err)
}
