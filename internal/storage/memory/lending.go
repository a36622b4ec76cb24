package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"LIBRA-backend/internal/lending"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

func (t tx) HasPendingRequest(_ context.Context, requesterID string, titleID int64) (bool, error) {
	for _, r := range t.st.requests {
		if r.RequesterID == requesterID && r.TitleID == titleID && r.Status == lending.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (t tx) InsertRequest(_ context.Context, r *lending.BorrowRequest) error {
	if _, ok := t.st.titles[r.TitleID]; !ok {
		return errForeignKey("borrow_requests.title_id")
	}
	t.st.seq.request++
	r.RequestID = t.st.seq.request
	t.st.requests[r.RequestID] = *r
	return nil
}

func (t tx) findRequest(k lending.Key) (lending.BorrowRequest, bool) {
	if k.ULID == "" {
		r, ok := t.st.requests[k.ID]
		return r, ok
	}
	for _, r := range t.st.requests {
		if r.RequestULID == k.ULID {
			return r, true
		}
	}
	return lending.BorrowRequest{}, false
}

func (t tx) LockRequest(_ context.Context, k lending.Key) (*lending.BorrowRequest, error) {
	r, ok := t.findRequest(k)
	if !ok {
		return nil, lending.ErrRequestNotFound()
	}
	return &r, nil
}

func (t tx) UpdateRequest(_ context.Context, r *lending.BorrowRequest) error {
	if _, ok := t.st.requests[r.RequestID]; !ok {
		return lending.ErrRequestNotFound()
	}
	t.st.requests[r.RequestID] = *r
	return nil
}

func (t tx) DeleteRequest(_ context.Context, requestID int64) error {
	if _, ok := t.st.requests[requestID]; !ok {
		return lending.ErrRequestNotFound()
	}
	delete(t.st.requests, requestID)
	return nil
}

func (t tx) HasRecord(_ context.Context, requestID int64) (bool, error) {
	_, ok := t.recordByRequest(requestID)
	return ok, nil
}

func (t tx) recordByRequest(requestID int64) (lending.BorrowRecord, bool) {
	for _, r := range t.st.records {
		if r.RequestID == requestID {
			return r, true
		}
	}
	return lending.BorrowRecord{}, false
}

func (t tx) InsertRecord(_ context.Context, r *lending.BorrowRecord) error {
	if _, ok := t.st.requests[r.RequestID]; !ok {
		return errForeignKey("borrow_records.request_id")
	}
	if _, dup := t.recordByRequest(r.RequestID); dup {
		return errUnique("borrow_records.request_id")
	}
	t.st.seq.record++
	r.RecordID = t.st.seq.record
	t.st.records[r.RecordID] = *r
	return nil
}

func (t tx) LockRecord(_ context.Context, k lending.Key) (*lending.BorrowRecord, error) {
	if k.ULID == "" {
		r, ok := t.st.records[k.ID]
		if !ok {
			return nil, lending.ErrRecordNotFound()
		}
		return &r, nil
	}
	for _, r := range t.st.records {
		if r.RecordULID == k.ULID {
			return &r, nil
		}
	}
	return nil, lending.ErrRecordNotFound()
}

func (t tx) UpdateRecord(_ context.Context, r *lending.BorrowRecord) error {
	if _, ok := t.st.records[r.RecordID]; !ok {
		return lending.ErrRecordNotFound()
	}
	t.st.records[r.RecordID] = *r
	return nil
}

type lendingStore struct{ s *Store }

func (l lendingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx lending.Tx) error) error {
	err := l.s.update(ctx, func(st *state) error {
		return fn(ctx, tx{st: st})
	})
	return apierr.AsTxFailure(err)
}

func (st *state) requestView(r lending.BorrowRequest) lending.RequestView {
	v := lending.RequestView{Request: r}
	if rec, ok := (tx{st: st}).recordByRequest(r.RequestID); ok {
		v.Record = &rec
	}
	if b, ok := st.titles[r.TitleID]; ok {
		b = st.resolveTitle(b)
		v.TitleName, v.TitleImage = b.Title, b.ImageURL
		v.AuthorName, v.CategoryName = b.AuthorName.String, b.CategoryName.String
	}
	v.RequesterName = st.accounts[r.RequesterID].FullName
	if r.ApproverID.Valid {
		v.ApproverName = st.accounts[r.ApproverID.String].FullName
	}
	return v
}

func (st *state) recordView(r lending.BorrowRecord) lending.RecordView {
	v := lending.RecordView{Record: r, RequestStatus: st.requests[r.RequestID].Status}
	if b, ok := st.titles[r.TitleID]; ok {
		b = st.resolveTitle(b)
		v.TitleName, v.TitleImage = b.Title, b.ImageURL
		v.AuthorName, v.CategoryName = b.AuthorName.String, b.CategoryName.String
	}
	v.RequesterName = st.accounts[r.RequesterID].FullName
	return v
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func matchRequest(v lending.RequestView, f lending.RequestFilter) bool {
	if f.RequesterID != "" && v.Request.RequesterID != f.RequesterID {
		return false
	}
	if f.TitleID != nil && v.Request.TitleID != *f.TitleID {
		return false
	}
	if f.Status != "" && v.EffectiveStatus(f.Now) != f.Status {
		return false
	}
	if f.Search != "" &&
		!containsFold(v.TitleName, f.Search) && !containsFold(v.AuthorName, f.Search) &&
		!containsFold(v.RequesterName, f.Search) && !containsFold(v.Request.RequesterID, f.Search) {
		return false
	}
	return true
}

// paginate sorts by (ts, id) and cuts the page. It returns the total before cutting.
func paginate[T any](items []T, p db.Page, key func(T) (int64, int64)) ([]T, int64) {
	p = p.Normalize()
	slices.SortFunc(items, func(a, b T) int {
		at, ai := key(a)
		bt, bi := key(b)
		c := cmp.Compare(at, bt)
		if c == 0 {
			c = cmp.Compare(ai, bi)
		}
		if !p.Asc() {
			c = -c
		}
		return c
	})
	total := int64(len(items))
	if p.Offset >= len(items) {
		return []T{}, total
	}
	end := min(p.Offset+p.Limit, len(items))
	return items[p.Offset:end], total
}

// 制約違反は素のエラーにして TRANSACTION_FAILURE 扱いにする（MySQL 側と同じ）
func errForeignKey(col string) error { return fmt.Errorf("memory: foreign key constraint fails on %s", col) }

func errUnique(col string) error { return fmt.Errorf("memory: duplicate entry for %s", col) }

func (l lendingStore) ListRequests(ctx context.Context, f lending.RequestFilter, p db.Page) ([]lending.RequestView, int64, error) {
	var out []lending.RequestView
	var total int64
	err := l.s.view(ctx, func(st *state) error {
		var all []lending.RequestView
		for _, r := range st.requests {
			if v := st.requestView(r); matchRequest(v, f) {
				all = append(all, v)
			}
		}
		out, total = paginate(all, p, func(v lending.RequestView) (int64, int64) {
			return v.Request.CreatedAt.UnixNano(), v.Request.RequestID
		})
		return nil
	})
	return out, total, err
}

func (l lendingStore) GetRequest(ctx context.Context, k lending.Key) (*lending.RequestView, error) {
	var out *lending.RequestView
	err := l.s.view(ctx, func(st *state) error {
		r, ok := (tx{st: st}).findRequest(k)
		if !ok {
			return lending.ErrRequestNotFound()
		}
		v := st.requestView(r)
		out = &v
		return nil
	})
	return out, err
}

func (l lendingStore) ListRecords(ctx context.Context, f lending.RecordFilter, p db.Page) ([]lending.RecordView, int64, error) {
	var out []lending.RecordView
	var total int64
	err := l.s.view(ctx, func(st *state) error {
		var all []lending.RecordView
		for _, r := range st.records {
			if f.RequesterID != "" && r.RequesterID != f.RequesterID {
				continue
			}
			if f.TitleID != nil && r.TitleID != *f.TitleID {
				continue
			}
			if f.Status != "" && r.EffectiveStatus(f.Now) != f.Status {
				continue
			}
			all = append(all, st.recordView(r))
		}
		out, total = paginate(all, p, func(v lending.RecordView) (int64, int64) {
			return v.Record.BorrowDate.UnixNano(), v.Record.RecordID
		})
		return nil
	})
	return out, total, err
}

func (l lendingStore) GetRecord(ctx context.Context, k lending.Key) (*lending.RecordView, error) {
	var out *lending.RecordView
	err := l.s.view(ctx, func(st *state) error {
		r, err := (tx{st: st}).LockRecord(ctx, k)
		if err != nil {
			return err
		}
		v := st.recordView(*r)
		out = &v
		return nil
	})
	return out, err
}
