// Package lending implements the borrow-request lifecycle: submission,
// approval or rejection, the borrow record created on approval, its return,
// and the merged read views over both.
//
//	pending ──approve──▶ borrowed ──return──▶ returned
//	   └────reject────▶ rejected
//
// "approved" is part of the vocabulary but never persisted; "overdue" is
// derived from the record's due date when read.
package lending

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"LIBRA-backend/internal/inventory"
	"LIBRA-backend/internal/platform/apierr"
)

const DefaultLoanDays = 14

type Service struct {
	store    Store
	clock    Clock
	ids      IDGen
	loanDays int
	log      *slog.Logger
}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

func WithIDGen(g IDGen) Option { return func(s *Service) { s.ids = g } }

// WithLoanDays sets the due date used when an approval doesn't give one.
func WithLoanDays(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.loanDays = n
		}
	}
}

func NewService(store Store, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		store:    store,
		clock:    realClock{},
		ids:      ulidGen{},
		loanDays: DefaultLoanDays,
		log:      log.With("component", "lending"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit creates a pending request for one copy of a title.
// The title row lock serializes the stock check and the duplicate check.
func (s *Service) Submit(ctx context.Context, requesterID string, titleID int64) (*BorrowRequest, error) {
	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" {
		return nil, apierr.ErrUnauthorized("requester identity is required")
	}
	if titleID <= 0 {
		return nil, apierr.ErrInvalid("title_id must be > 0")
	}

	now := s.clock.Now()
	req := &BorrowRequest{
		RequestULID: s.ids.NewULID(now),
		RequesterID: requesterID,
		TitleID:     titleID,
		Status:      StatusPending,
		CreatedAt:   now,
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		n, err := tx.LockAvailable(ctx, titleID)
		if err != nil {
			return err
		}
		if n <= 0 {
			return inventory.ErrOutOfStock()
		}
		dup, err := tx.HasPendingRequest(ctx, requesterID, titleID)
		if err != nil {
			return err
		}
		if dup {
			return ErrDuplicatePendingRequest()
		}
		return tx.InsertRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("borrow request submitted",
		"request_id", req.RequestID, "request_ulid", req.RequestULID,
		"requester_id", requesterID, "title_id", titleID)
	return req, nil
}

type DecideInput struct {
	Key        Key
	Decision   Status // approved | rejected
	ApproverID string
	DueDate    *time.Time
}

type DecideResult struct {
	Request BorrowRequest
	Record  *BorrowRecord // approved のときのみ
}

// Decide approves or rejects a pending request. Approval takes a copy out of
// stock, moves the request straight to borrowed and opens its record, all in
// one transaction.
func (s *Service) Decide(ctx context.Context, in DecideInput) (*DecideResult, error) {
	approver := strings.TrimSpace(in.ApproverID)
	if approver == "" {
		return nil, apierr.ErrUnauthorized("approver identity is required")
	}
	if in.Decision != StatusApproved && in.Decision != StatusRejected {
		return nil, apierr.ErrInvalid("decision must be approved or rejected")
	}

	now := s.clock.Now()
	due := now.AddDate(0, 0, s.loanDays)
	// 却下では期限を使わない
	if in.DueDate != nil && in.Decision == StatusApproved {
		due = in.DueDate.UTC()
		if !due.After(now) {
			return nil, apierr.ErrInvalid("due_date must be in the future")
		}
	}
	recordULID := s.ids.NewULID(now)

	var out DecideResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		req, err := tx.LockRequest(ctx, in.Key)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return ErrInvalidStateTransition(req.Status, "decide")
		}
		req.ApproverID = sql.NullString{String: approver, Valid: true}
		req.ApprovedAt = sql.NullTime{Time: now, Valid: true}

		if in.Decision == StatusRejected {
			req.Status = StatusRejected
			if err := tx.UpdateRequest(ctx, req); err != nil {
				return err
			}
			out.Request = *req
			return nil
		}

		if err := inventory.Decrement(ctx, tx, req.TitleID); err != nil {
			return err
		}
		req.Status = StatusBorrowed
		if err := tx.UpdateRequest(ctx, req); err != nil {
			return err
		}
		rec := &BorrowRecord{
			RecordULID:  recordULID,
			RequestID:   req.RequestID,
			RequesterID: req.RequesterID,
			TitleID:     req.TitleID,
			BorrowDate:  now,
			DueDate:     due,
			Status:      StatusBorrowed,
		}
		if err := tx.InsertRecord(ctx, rec); err != nil {
			return err
		}
		out.Request = *req
		out.Record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	attrs := []any{"request_id", out.Request.RequestID, "approver_id", approver, "decision", string(in.Decision)}
	if out.Record != nil {
		attrs = append(attrs, "record_id", out.Record.RecordID, "due_date", out.Record.DueDate)
	}
	s.log.Info("borrow request decided", attrs...)
	return &out, nil
}

// RemoveRequest deletes a request that never turned into a loan.
func (s *Service) RemoveRequest(ctx context.Context, k Key, adminID string) error {
	if strings.TrimSpace(adminID) == "" {
		return apierr.ErrUnauthorized("admin identity is required")
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		req, err := tx.LockRequest(ctx, k)
		if err != nil {
			return err
		}
		has, err := tx.HasRecord(ctx, req.RequestID)
		if err != nil {
			return err
		}
		if has || req.Status == StatusBorrowed || req.Status == StatusReturned {
			return ErrInvalidStateTransition(req.Status, "remove")
		}
		return tx.DeleteRequest(ctx, req.RequestID)
	})
	if err != nil {
		return err
	}
	s.log.Info("borrow request removed", "key", k.String(), "admin_id", adminID)
	return nil
}
