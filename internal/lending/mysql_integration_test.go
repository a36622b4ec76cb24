//go:build integration

package lending_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"LIBRA-backend/internal/catalog"
	"LIBRA-backend/internal/inventory"
	"LIBRA-backend/internal/lending"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
)

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "mysql:8.4",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "root",
			"MYSQL_DATABASE":      "libra",
			"MYSQL_USER":          "libra",
			"MYSQL_PASSWORD":      "libra",
		},
		// 初期化用の一時サーバも ready を出すので2回目を待つ
		WaitingFor: wait.ForAll(
			wait.ForLog("ready for connections").WithOccurrence(2),
			wait.ForListeningPort("3306/tcp"),
		).WithDeadline(3 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)
	p, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	conn, err := db.Connect(db.DatabaseConfig{Host: host, Port: p, Username: "libra", Password: "libra", DBName: "libra"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(ctx, conn))
	return conn
}

func seedMySQLTitle(t *testing.T, conn *sql.DB, copies int) int64 {
	t.Helper()
	b := &catalog.Title{Title: fmt.Sprintf("title-%d", time.Now().UnixNano()), AvailableCopies: copies, CreatedAt: time.Now().UTC()}
	require.NoError(t, catalog.NewStore(conn).CreateTitle(context.Background(), b))
	return b.TitleID
}

func TestMySQL(t *testing.T) {
	conn := startMySQL(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	inv := inventory.NewStore(conn)
	ctx := context.Background()

	for _, id := range []string{"alice", "bob", "admin"} {
		require.NoError(t, auth.NewStore(conn).Create(ctx, &auth.Account{ID: id, PasswordHash: "x", Role: auth.RoleReader, FullName: "Name " + id}))
	}

	t.Run("borrow and return", func(t *testing.T) {
		title := seedMySQLTitle(t, conn, 1)
		svc := lending.NewService(lending.NewStore(conn), log)

		r, err := svc.Submit(ctx, "alice", title)
		require.NoError(t, err)
		_, err = svc.Submit(ctx, "alice", title)
		assert.True(t, apierr.Is(err, apierr.CodeDuplicatePendingRequest))

		res, err := svc.Decide(ctx, lending.DecideInput{Key: lending.Key{ULID: r.RequestULID}, Decision: lending.StatusApproved, ApproverID: "admin"})
		require.NoError(t, err)
		n, err := inv.Available(ctx, title)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		v, err := svc.GetRequest(ctx, lending.Key{ID: r.RequestID}, lending.Viewer{ID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, "Name alice", v.RequesterName)
		assert.Equal(t, "Name admin", v.ApproverName)
		require.NotNil(t, v.Record)
		assert.Equal(t, res.Record.RecordULID, v.Record.RecordULID)

		_, err = svc.MarkReturned(ctx, lending.Key{ID: res.Record.RecordID}, "admin")
		require.NoError(t, err)
		_, err = svc.MarkReturned(ctx, lending.Key{ID: res.Record.RecordID}, "admin")
		assert.True(t, apierr.Is(err, apierr.CodeAlreadyReturned))
		n, err = inv.Available(ctx, title)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("overdue filter", func(t *testing.T) {
		title := seedMySQLTitle(t, conn, 1)
		clock := &fakeClock{t: time.Now().UTC().Truncate(time.Microsecond)}
		svc := lending.NewService(lending.NewStore(conn), log, lending.WithClock(clock), lending.WithLoanDays(1))

		r, err := svc.Submit(ctx, "bob", title)
		require.NoError(t, err)
		_, err = svc.Decide(ctx, lending.DecideInput{Key: lending.Key{ID: r.RequestID}, Decision: lending.StatusApproved, ApproverID: "admin"})
		require.NoError(t, err)

		tid := title
		f := lending.RequestFilter{TitleID: &tid, Status: lending.StatusOverdue}
		page, err := svc.ListRequests(ctx, f, db.Page{})
		require.NoError(t, err)
		assert.Zero(t, page.Total)

		clock.Advance(48 * time.Hour)
		page, err = svc.ListRequests(ctx, f, db.Page{})
		require.NoError(t, err)
		require.EqualValues(t, 1, page.Total)
		assert.Equal(t, lending.StatusOverdue, page.Items[0].EffectiveStatus(clock.Now()))

		recs, err := svc.ListRecords(ctx, lending.RecordFilter{TitleID: &tid, Status: lending.StatusOverdue}, db.Page{})
		require.NoError(t, err)
		assert.EqualValues(t, 1, recs.Total)

		for _, q := range []string{"%", "_"} {
			page, err = svc.ListRequests(ctx, lending.RequestFilter{TitleID: &tid, Search: q}, db.Page{})
			require.NoError(t, err)
			assert.Zero(t, page.Total, q)
		}
	})

	t.Run("concurrent approvals", func(t *testing.T) {
		const copies, readers = 2, 8
		title := seedMySQLTitle(t, conn, copies)
		svc := lending.NewService(lending.NewStore(conn), log)

		keys := make([]lending.Key, readers)
		for i := range keys {
			id := fmt.Sprintf("reader-%d", i)
			r, err := svc.Submit(ctx, id, title)
			require.NoError(t, err)
			keys[i] = lending.Key{ID: r.RequestID}
		}

		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)
		for _, k := range keys {
			wg.Add(1)
			go func(k lending.Key) {
				defer wg.Done()
				_, err := svc.Decide(ctx, lending.DecideInput{Key: k, Decision: lending.StatusApproved, ApproverID: "admin"})
				if err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}(k)
		}
		wg.Wait()

		assert.Equal(t, copies, ok)
		n, err := inv.Available(ctx, title)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("concurrent duplicate submits", func(t *testing.T) {
		title := seedMySQLTitle(t, conn, 3)
		svc := lending.NewService(lending.NewStore(conn), log)

		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.Submit(ctx, "alice", title); err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, ok)
	})
}
