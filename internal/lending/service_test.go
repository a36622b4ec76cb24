package lending_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/catalog"
	"LIBRA-backend/internal/inventory"
	"LIBRA-backend/internal/lending"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/storage/memory"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type env struct {
	svc   *lending.Service
	mem   *memory.Store
	clock *fakeClock
	title int64
}

func newEnv(t *testing.T, copies int, opts ...lending.Option) *env {
	t.Helper()
	mem := memory.New()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	b := &catalog.Title{Title: "The Go Programming Language", AvailableCopies: copies}
	require.NoError(t, mem.Catalog().CreateTitle(context.Background(), b))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]lending.Option{lending.WithClock(clock)}, opts...)
	return &env{
		svc:   lending.NewService(mem.Lending(), log, opts...),
		mem:   mem,
		clock: clock,
		title: b.TitleID,
	}
}

func (e *env) available(t *testing.T) int {
	t.Helper()
	n, err := e.mem.Inventory().Available(context.Background(), e.title)
	require.NoError(t, err)
	return n
}

func (e *env) approve(t *testing.T, r *lending.BorrowRequest) *lending.DecideResult {
	t.Helper()
	res, err := e.svc.Decide(context.Background(), lending.DecideInput{
		Key: lending.Key{ID: r.RequestID}, Decision: lending.StatusApproved, ApproverID: "admin",
	})
	require.NoError(t, err)
	return res
}

func assertCode(t *testing.T, err error, code apierr.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apierr.CodeOf(err), "err = %v", err)
}

func TestSubmit_Validation(t *testing.T) {
	e := newEnv(t, 1)
	ctx := context.Background()

	_, err := e.svc.Submit(ctx, "  ", e.title)
	assertCode(t, err, apierr.CodeUnauthorized)

	_, err = e.svc.Submit(ctx, "alice", 0)
	assertCode(t, err, apierr.CodeInvalidArgument)

	_, err = e.svc.Submit(ctx, "alice", 9999)
	assertCode(t, err, apierr.CodeNotFound)
}

func TestSubmit_CreatesPending(t *testing.T) {
	e := newEnv(t, 1)

	r, err := e.svc.Submit(context.Background(), "alice", e.title)
	require.NoError(t, err)
	assert.Equal(t, lending.StatusPending, r.Status)
	assert.Len(t, r.RequestULID, 26)
	assert.Equal(t, e.clock.Now(), r.CreatedAt)
	assert.False(t, r.ApproverID.Valid)

	// 申請だけでは在庫は減らない
	assert.Equal(t, 1, e.available(t))
}

func TestSubmit_OutOfStock(t *testing.T) {
	e := newEnv(t, 0)
	_, err := e.svc.Submit(context.Background(), "alice", e.title)
	assertCode(t, err, apierr.CodeOutOfStock)
}

func TestSubmit_DuplicatePending(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()

	first, err := e.svc.Submit(ctx, "alice", e.title)
	require.NoError(t, err)
	_, err = e.svc.Submit(ctx, "alice", e.title)
	assertCode(t, err, apierr.CodeDuplicatePendingRequest)

	// another reader is not affected
	_, err = e.svc.Submit(ctx, "bob", e.title)
	require.NoError(t, err)

	// once decided, the same reader may ask again
	_, err = e.svc.Decide(ctx, lending.DecideInput{
		Key: lending.Key{ULID: first.RequestULID}, Decision: lending.StatusRejected, ApproverID: "admin",
	})
	require.NoError(t, err)
	_, err = e.svc.Submit(ctx, "alice", e.title)
	require.NoError(t, err)
}

func TestDecide_Approve(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	r, err := e.svc.Submit(ctx, "alice", e.title)
	require.NoError(t, err)

	res := e.approve(t, r)

	assert.Equal(t, lending.StatusBorrowed, res.Request.Status)
	assert.Equal(t, "admin", res.Request.ApproverID.String)
	assert.Equal(t, e.clock.Now(), res.Request.ApprovedAt.Time)
	require.NotNil(t, res.Record)
	assert.Equal(t, r.RequestID, res.Record.RequestID)
	assert.Equal(t, lending.StatusBorrowed, res.Record.Status)
	assert.Equal(t, e.clock.Now(), res.Record.BorrowDate)
	assert.Equal(t, e.clock.Now().AddDate(0, 0, lending.DefaultLoanDays), res.Record.DueDate)
	assert.False(t, res.Record.ReturnDate.Valid)
	assert.Equal(t, 1, e.available(t))
}

func TestDecide_LoanDaysOption(t *testing.T) {
	e := newEnv(t, 1, lending.WithLoanDays(7))
	r, err := e.svc.Submit(context.Background(), "alice", e.title)
	require.NoError(t, err)

	res := e.approve(t, r)
	assert.Equal(t, e.clock.Now().AddDate(0, 0, 7), res.Record.DueDate)
}

func TestDecide_Reject(t *testing.T) {
	e := newEnv(t, 1)
	ctx := context.Background()
	r, err := e.svc.Submit(ctx, "alice", e.title)
	require.NoError(t, err)

	res, err := e.svc.Decide(ctx, lending.DecideInput{
		Key: lending.Key{ID: r.RequestID}, Decision: lending.StatusRejected, ApproverID: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, lending.StatusRejected, res.Request.Status)
	assert.Nil(t, res.Record)
	assert.Equal(t, 1, e.available(t))

	page, err := e.svc.ListRecords(ctx, lending.RecordFilter{}, db.Page{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestDecide_RejectIgnoresDueDate(t *testing.T) {
	e := newEnv(t, 1)
	ctx := context.Background()
	r, err := e.svc.Submit(ctx, "alice", e.title)
	require.NoError(t, err)

	past := e.clock.Now().Add(-time.Hour)
	res, err := e.svc.Decide(ctx, lending.DecideInput{
		Key: lending.Key{ID: r.RequestID}, Decision: lending.StatusRejected, ApproverID: "admin", DueDate: &past,
	})
	require.NoError(t, err)
	assert.Equal(t, lending.StatusRejected, res.Request.Status)
	assert.Nil(t, res.Record)
	assert.Equal(t, 1, e.available(t))
}

func TestDecide_Validation(t *testing.T) {
	e := newEnv(t, 1)
	ctx := context.Background()
	r, err := e.svc.Submit(ctx, "alice", e.title)
	require.NoError(t, err)
	k := lending.Key{ID: r.RequestID}

	_, err = e.svc.Decide(ctx, lending.DecideInput{Key: k, Decision: lending.StatusApproved})
	assertCode(t, err, apierr.CodeUnauthorized)

	_, err = e.svc.Decide(ctx, lending.DecideInput{Key: k, Decision: lending.StatusBorrowed, ApproverID: "admin"})
	assertCode(t, err, apierr.CodeInvalidArgument)

	past := e.clock.Now().Add(-time.Hour)
	_, err = e.svc.Decide(ctx, lending.DecideInput{Key: k, Decision: lending.StatusApproved, ApproverID: "admin", DueDate: &past})
	assertCode(t, err, apierr.CodeInvalidArgument)

	_, err = e.svc.Decide(ctx, lending.DecideInput{Key: lending.Key{ID: 404}, Decision: lending.StatusApproved, ApproverID: "admin"})
	assertCode(t, err, apierr.CodeNotFound)

	got, err := e.svc.GetRequest(ctx, k, lending.Viewer{Admin: true})
	require.NoError(t, err)
	assert.Equal(t, lending.StatusPending, got.Request.Status)
	assert.Equal(t, 1, e.available(t))
}

func TestDecide_Twice(t *testing.T) {
	e := newEnv(t, 3)
	ctx := context.Background()
	r, err := e.svc.Submit(ctx, "alice", e.title)
	require.NoError(t, err)
	e.approve(t, r)

	for _, d := range []lending.Status{lending.StatusApproved, lending.StatusRejected} {
		_, err = e.svc.Decide(ctx, lending.DecideInput{Key: lending.Key{ID: r.RequestID}, Decision: d, ApproverID: "admin"})
		assertCode(t, err, apierr.CodeInvalidStateTransition)
	}
	assert.Equal(t, 2, e.available(t))
}

// Two readers ask for the last copy. The first approval wins; the second
// fails and leaves its request pending with stock untouched.
func TestDecide_LastCopy(t *testing.T) {
	e := newEnv(t, 1)
	ctx := context.Background()
	a, err := e.svc.Submit(ctx, "alice", e.title)
	require.NoError(t, err)
	b, err := e.svc.Submit(ctx, "bob", e.title)
	require.NoError(t, err)

	e.approve(t, a)
	assert.Equal(t, 0, e.available(t))

	_, err = e.svc.Decide(ctx, lending.DecideInput{Key: lending.Key{ID: b.RequestID}, Decision: lending.StatusApproved, ApproverID: "admin"})
	assertCode(t, err, apierr.CodeOutOfStock)

	got, err := e.svc.GetRequest(ctx, lending.Key{ID: b.RequestID}, lending.Viewer{ID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, lending.StatusPending, got.Request.Status)
	assert.Nil(t, got.Record)
	assert.Equal(t, 0, e.available(t))

	// after alice returns, bob can be approved
	rec, err := e.svc.ListRecords(ctx, lending.RecordFilter{RequesterID: "alice"}, db.Page{})
	require.NoError(t, err)
	require.Len(t, rec.Items, 1)
	_, err = e.svc.MarkReturned(ctx, lending.Key{ID: rec.Items[0].Record.RecordID}, "admin")
	require.NoError(t, err)
	e.approve(t, b)
	assert.Equal(t, 0, e.available(t))
}

func TestBorrowAndReturn(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	r, err := e.svc.Submit(ctx, "alice", e.title)
	require.NoError(t, err)

	due := e.clock.Now().Add(10 * 24 * time.Hour)
	res, err := e.svc.Decide(ctx, lending.DecideInput{
		Key: lending.Key{ID: r.RequestID}, Decision: lending.StatusApproved, ApproverID: "admin", DueDate: &due,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, e.available(t))

	e.clock.Advance(3 * 24 * time.Hour)
	rec, err := e.svc.MarkReturned(ctx, lending.Key{ULID: res.Record.RecordULID}, "admin")
	require.NoError(t, err)
	assert.Equal(t, lending.StatusReturned, rec.Status)
	assert.True(t, rec.ReturnDate.Valid)
	assert.Equal(t, e.clock.Now(), rec.ReturnDate.Time)
	assert.Equal(t, due, rec.DueDate)
	assert.Equal(t, 2, e.available(t))

	got, err := e.svc.GetRequest(ctx, lending.Key{ID: r.RequestID}, lending.Viewer{ID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, lending.StatusReturned, got.Request.Status)
	require.NotNil(t, got.Record)
	assert.Equal(t, lending.StatusReturned, got.Record.Status)

	_, err = e.svc.MarkReturned(ctx, lending.Key{ID: rec.RecordID}, "admin")
	assertCode(t, err, apierr.CodeAlreadyReturned)
	assert.Equal(t, 2, e.available(t))
}

func TestMarkReturned_Errors(t *testing.T) {
	e := newEnv(t, 1)
	ctx := context.Background()

	_, err := e.svc.MarkReturned(ctx, lending.Key{ID: 1}, "")
	assertCode(t, err, apierr.CodeUnauthorized)

	_, err = e.svc.MarkReturned(ctx, lending.Key{ID: 1}, "admin")
	assertCode(t, err, apierr.CodeNotFound)
}

func TestOverdueIsDerived(t *testing.T) {
	e := newEnv(t, 1)
	ctx := context.Background()
	r, err := e.svc.Submit(ctx, "alice", e.title)
	require.NoError(t, err)
	res := e.approve(t, r)

	overdue := lending.RequestFilter{Status: lending.StatusOverdue}
	borrowed := lending.RequestFilter{Status: lending.StatusBorrowed}

	page, err := e.svc.ListRequests(ctx, overdue, db.Page{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	page, err = e.svc.ListRequests(ctx, borrowed, db.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	e.clock.Advance(lending.DefaultLoanDays*24*time.Hour + time.Minute)

	page, err = e.svc.ListRequests(ctx, overdue, db.Page{})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, lending.StatusOverdue, page.Items[0].EffectiveStatus(e.clock.Now()))
	// stored status is unchanged
	assert.Equal(t, lending.StatusBorrowed, page.Items[0].Request.Status)

	page, err = e.svc.ListRequests(ctx, borrowed, db.Page{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	recs, err := e.svc.ListRecords(ctx, lending.RecordFilter{Status: lending.StatusOverdue}, db.Page{})
	require.NoError(t, err)
	require.Len(t, recs.Items, 1)
	assert.Equal(t, res.Record.RecordID, recs.Items[0].Record.RecordID)

	// returning late clears it
	_, err = e.svc.MarkReturned(ctx, lending.Key{ID: res.Record.RecordID}, "admin")
	require.NoError(t, err)
	page, err = e.svc.ListRequests(ctx, overdue, db.Page{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestRemoveRequest(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	pending, err := e.svc.Submit(ctx, "alice", e.title)
	require.NoError(t, err)
	borrowed, err := e.svc.Submit(ctx, "bob", e.title)
	require.NoError(t, err)
	e.approve(t, borrowed)

	assertCode(t, e.svc.RemoveRequest(ctx, lending.Key{ID: pending.RequestID}, ""), apierr.CodeUnauthorized)
	require.NoError(t, e.svc.RemoveRequest(ctx, lending.Key{ID: pending.RequestID}, "admin"))
	_, err = e.svc.GetRequest(ctx, lending.Key{ID: pending.RequestID}, lending.Viewer{Admin: true})
	assertCode(t, err, apierr.CodeNotFound)

	assertCode(t, e.svc.RemoveRequest(ctx, lending.Key{ID: borrowed.RequestID}, "admin"), apierr.CodeInvalidStateTransition)
	assert.Equal(t, 1, e.available(t))
}

func TestGetRequest_Visibility(t *testing.T) {
	e := newEnv(t, 1)
	ctx := context.Background()
	r, err := e.svc.Submit(ctx, "alice", e.title)
	require.NoError(t, err)

	got, err := e.svc.GetRequest(ctx, lending.Key{ULID: r.RequestULID}, lending.Viewer{ID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, r.RequestID, got.Request.RequestID)
	assert.Equal(t, "The Go Programming Language", got.TitleName)

	_, err = e.svc.GetRequest(ctx, lending.Key{ID: r.RequestID}, lending.Viewer{ID: "bob"})
	assertCode(t, err, apierr.CodeNotFound)

	_, err = e.svc.GetRequest(ctx, lending.Key{ID: r.RequestID}, lending.Viewer{})
	assertCode(t, err, apierr.CodeUnauthorized)
}

func TestListRequests_FiltersAndPaging(t *testing.T) {
	e := newEnv(t, 10)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := e.svc.Submit(ctx, fmt.Sprintf("reader%d", i), e.title)
		require.NoError(t, err)
		e.clock.Advance(time.Minute)
	}

	page, err := e.svc.ListRequests(ctx, lending.RequestFilter{}, db.Page{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "reader4", page.Items[0].Request.RequesterID)
	assert.Equal(t, 2, page.NextOffset)

	page, err = e.svc.ListRequests(ctx, lending.RequestFilter{}, db.Page{Limit: 2, Offset: 4, Order: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "reader4", page.Items[0].Request.RequesterID)

	page, err = e.svc.ListRequests(ctx, lending.RequestFilter{Search: "go programming"}, db.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)

	// ワイルドカードは文字として扱う
	for _, q := range []string{"%", "_", `\`} {
		page, err = e.svc.ListRequests(ctx, lending.RequestFilter{Search: q}, db.Page{})
		require.NoError(t, err)
		assert.Zero(t, page.Total, q)
	}

	mine, err := e.svc.MyRequests(ctx, "reader3", "", db.Page{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "reader3", mine.Items[0].Request.RequesterID)

	_, err = e.svc.MyRequests(ctx, "", "", db.Page{})
	assertCode(t, err, apierr.CodeUnauthorized)

	_, err = e.svc.ListRequests(ctx, lending.RequestFilter{Status: "lost"}, db.Page{})
	assertCode(t, err, apierr.CodeInvalidArgument)

	_, err = e.svc.ListRecords(ctx, lending.RecordFilter{Status: lending.StatusPending}, db.Page{})
	assertCode(t, err, apierr.CodeInvalidArgument)
}

func TestConcurrentApprovals_NeverOversell(t *testing.T) {
	const copies, readers = 3, 12
	e := newEnv(t, copies)
	ctx := context.Background()

	reqs := make([]*lending.BorrowRequest, readers)
	for i := range reqs {
		r, err := e.svc.Submit(ctx, fmt.Sprintf("reader%d", i), e.title)
		require.NoError(t, err)
		reqs[i] = r
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok, failed int
	)
	for _, r := range reqs {
		wg.Add(1)
		go func(r *lending.BorrowRequest) {
			defer wg.Done()
			_, err := e.svc.Decide(ctx, lending.DecideInput{
				Key: lending.Key{ID: r.RequestID}, Decision: lending.StatusApproved, ApproverID: "admin",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			if apierr.Is(err, apierr.CodeOutOfStock) {
				failed++
			}
		}(r)
	}
	wg.Wait()

	assert.Equal(t, copies, ok)
	assert.Equal(t, readers-copies, failed)
	assert.Equal(t, 0, e.available(t))

	pending, err := e.svc.ListRequests(ctx, lending.RequestFilter{Status: lending.StatusPending}, db.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, readers-copies, pending.Total)
}

func TestConcurrentDuplicateSubmits(t *testing.T) {
	e := newEnv(t, 5)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dups int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.svc.Submit(ctx, "alice", e.title)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apierr.Is(err, apierr.CodeDuplicatePendingRequest):
				dups++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, dups)
}

// failingStore breaks InsertRecord to check that approval rolls back as a whole.
type failingStore struct {
	lending.Store
	insertRecordFn func() error
}

type failingTx struct {
	lending.Tx
	insertRecordFn func() error
}

func (f failingTx) InsertRecord(ctx context.Context, r *lending.BorrowRecord) error {
	return f.insertRecordFn()
}

func (f failingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx lending.Tx) error) error {
	return f.Store.WithinTx(ctx, func(ctx context.Context, tx lending.Tx) error {
		return fn(ctx, failingTx{Tx: tx, insertRecordFn: f.insertRecordFn})
	})
}

func TestDecide_RollsBackOnStorageFailure(t *testing.T) {
	e := newEnv(t, 1)
	ctx := context.Background()
	r, err := e.svc.Submit(ctx, "alice", e.title)
	require.NoError(t, err)

	broken := lending.NewService(failingStore{
		Store:          e.mem.Lending(),
		insertRecordFn: func() error { return errors.New("disk full") },
	}, nil, lending.WithClock(e.clock))

	_, err = broken.Decide(ctx, lending.DecideInput{Key: lending.Key{ID: r.RequestID}, Decision: lending.StatusApproved, ApproverID: "admin"})
	assertCode(t, err, apierr.CodeTransactionFailure)

	got, err := e.svc.GetRequest(ctx, lending.Key{ID: r.RequestID}, lending.Viewer{Admin: true})
	require.NoError(t, err)
	assert.Equal(t, lending.StatusPending, got.Request.Status)
	assert.Equal(t, 1, e.available(t))
}

func TestInventoryServiceSharesLedger(t *testing.T) {
	e := newEnv(t, 1)
	ctx := context.Background()
	inv := inventory.NewService(e.mem.Inventory(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	r, err := e.svc.Submit(ctx, "alice", e.title)
	require.NoError(t, err)
	_, err = inv.SetStock(ctx, e.title, 0, "admin")
	require.NoError(t, err)

	_, err = e.svc.Decide(ctx, lending.DecideInput{Key: lending.Key{ID: r.RequestID}, Decision: lending.StatusApproved, ApproverID: "admin"})
	assertCode(t, err, apierr.CodeOutOfStock)
}
