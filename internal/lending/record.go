package lending

import (
	"context"
	"database/sql"
	"strings"

	"LIBRA-backend/internal/inventory"
	"LIBRA-backend/internal/platform/apierr"
)

// MarkReturned closes a loan: record and request go to returned and the copy
// goes back into stock, atomically. A second call fails with ALREADY_RETURNED
// and leaves stock untouched.
func (s *Service) MarkReturned(ctx context.Context, k Key, actorID string) (*BorrowRecord, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, apierr.ErrUnauthorized("actor identity is required")
	}

	now := s.clock.Now()
	var out BorrowRecord
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		rec, err := tx.LockRecord(ctx, k)
		if err != nil {
			return err
		}
		if rec.Status == StatusReturned {
			return ErrAlreadyReturned()
		}
		req, err := tx.LockRequest(ctx, Key{ID: rec.RequestID})
		if err != nil {
			return err
		}
		if req.Status != StatusBorrowed {
			return ErrInvalidStateTransition(req.Status, "return")
		}

		rec.Status = StatusReturned
		rec.ReturnDate = sql.NullTime{Time: now, Valid: true}
		if err := tx.UpdateRecord(ctx, rec); err != nil {
			return err
		}
		req.Status = StatusReturned
		if err := tx.UpdateRequest(ctx, req); err != nil {
			return err
		}
		if err := inventory.Increment(ctx, tx, rec.TitleID); err != nil {
			return err
		}
		out = *rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("borrow record returned",
		"record_id", out.RecordID, "request_id", out.RequestID, "title_id", out.TitleID, "actor_id", actorID,
		"late", out.ReturnDate.Time.After(out.DueDate))
	return &out, nil
}
