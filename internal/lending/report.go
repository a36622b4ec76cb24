package lending

import (
	"context"
	"strings"
	"time"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

// Viewer is whoever is reading. Non-admins only see their own requests.
type Viewer struct {
	ID    string
	Admin bool
}

type RequestPage struct {
	Items      []RequestView
	Total      int64
	NextOffset int
}

type RecordPage struct {
	Items      []RecordView
	Total      int64
	NextOffset int
}

func parseStatusFilter(s Status) (Status, error) {
	s = Status(strings.ToLower(strings.TrimSpace(string(s))))
	if s == "" || s.Valid() {
		return s, nil
	}
	return "", apierr.ErrInvalid("unknown status: " + string(s))
}

// ListRequests is the admin merged view over requests and their records.
func (s *Service) ListRequests(ctx context.Context, f RequestFilter, p db.Page) (*RequestPage, error) {
	st, err := parseStatusFilter(f.Status)
	if err != nil {
		return nil, err
	}
	f.Status = st
	f.Search = strings.TrimSpace(f.Search)
	f.Now = s.clock.Now()
	p = p.Normalize()

	items, total, err := s.store.ListRequests(ctx, f, p)
	if err != nil {
		return nil, err
	}
	return &RequestPage{Items: items, Total: total, NextOffset: p.NextOffset(total)}, nil
}

// MyRequests is the requester's own history, newest first unless p says otherwise.
func (s *Service) MyRequests(ctx context.Context, requesterID string, status Status, p db.Page) (*RequestPage, error) {
	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" {
		return nil, apierr.ErrUnauthorized("requester identity is required")
	}
	return s.ListRequests(ctx, RequestFilter{RequesterID: requesterID, Status: status}, p)
}

func (s *Service) GetRequest(ctx context.Context, k Key, v Viewer) (*RequestView, error) {
	if v.ID == "" && !v.Admin {
		return nil, apierr.ErrUnauthorized("identity is required")
	}
	rv, err := s.store.GetRequest(ctx, k)
	if err != nil {
		return nil, err
	}
	// 他人の申請は存在自体を見せない
	if !v.Admin && rv.Request.RequesterID != v.ID {
		return nil, ErrRequestNotFound()
	}
	return rv, nil
}

func (s *Service) ListRecords(ctx context.Context, f RecordFilter, p db.Page) (*RecordPage, error) {
	st, err := parseStatusFilter(f.Status)
	if err != nil {
		return nil, err
	}
	switch st {
	case "", StatusBorrowed, StatusReturned, StatusOverdue:
	default:
		return nil, apierr.ErrInvalid("records are only borrowed, returned or overdue")
	}
	f.Status = st
	f.Now = s.clock.Now()
	p = p.Normalize()

	items, total, err := s.store.ListRecords(ctx, f, p)
	if err != nil {
		return nil, err
	}
	return &RecordPage{Items: items, Total: total, NextOffset: p.NextOffset(total)}, nil
}

func (s *Service) GetRecord(ctx context.Context, k Key) (*RecordView, error) {
	return s.store.GetRecord(ctx, k)
}

// Now exposes the service clock so callers derive overdue against the same instant.
func (s *Service) Now() time.Time { return s.clock.Now() }
