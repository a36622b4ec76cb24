package lending

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"LIBRA-backend/internal/platform/db"
)

// SQLStore is the MySQL Store. Writes go through WithinTx, reads are goqu-built joins.
type SQLStore struct {
	conn *sql.DB
	db   *sqlx.DB
	qb   goqu.DialectWrapper
}

func NewStore(conn *sql.DB) *SQLStore {
	return &SQLStore{conn: conn, db: sqlx.NewDb(conn, "mysql"), qb: goqu.Dialect("mysql")}
}

// requestRow: 申請 + 貸出記録(LEFT JOIN) + 表示名
type requestRow struct {
	BorrowRequest
	RecordID      sql.NullInt64  `db:"record_id"`
	RecordULID    sql.NullString `db:"record_ulid"`
	BorrowDate    sql.NullTime   `db:"borrow_date"`
	DueDate       sql.NullTime   `db:"due_date"`
	ReturnDate    sql.NullTime   `db:"return_date"`
	RecordStatus  sql.NullString `db:"record_status"`
	TitleName     sql.NullString `db:"title_name"`
	TitleImage    sql.NullString `db:"image_url"`
	AuthorName    sql.NullString `db:"author_name"`
	CategoryName  sql.NullString `db:"category_name"`
	RequesterName sql.NullString `db:"requester_name"`
	ApproverName  sql.NullString `db:"approver_name"`
}

func (r requestRow) view() RequestView {
	v := RequestView{
		Request:       r.BorrowRequest,
		TitleName:     r.TitleName.String,
		TitleImage:    r.TitleImage.String,
		AuthorName:    r.AuthorName.String,
		CategoryName:  r.CategoryName.String,
		RequesterName: r.RequesterName.String,
		ApproverName:  r.ApproverName.String,
	}
	if r.RecordID.Valid {
		v.Record = &BorrowRecord{
			RecordID:    r.RecordID.Int64,
			RecordULID:  r.RecordULID.String,
			RequestID:   r.RequestID,
			RequesterID: r.RequesterID,
			TitleID:     r.TitleID,
			BorrowDate:  r.BorrowDate.Time,
			DueDate:     r.DueDate.Time,
			ReturnDate:  r.ReturnDate,
			Status:      Status(r.RecordStatus.String),
		}
	}
	return v
}

type recordRow struct {
	BorrowRecord
	RequestStatus string         `db:"request_status"`
	TitleName     sql.NullString `db:"title_name"`
	TitleImage    sql.NullString `db:"image_url"`
	AuthorName    sql.NullString `db:"author_name"`
	CategoryName  sql.NullString `db:"category_name"`
	RequesterName sql.NullString `db:"requester_name"`
}

func (r recordRow) view() RecordView {
	return RecordView{
		Record:        r.BorrowRecord,
		RequestStatus: Status(r.RequestStatus),
		TitleName:     r.TitleName.String,
		TitleImage:    r.TitleImage.String,
		AuthorName:    r.AuthorName.String,
		CategoryName:  r.CategoryName.String,
		RequesterName: r.RequesterName.String,
	}
}

var requestColumns = []any{
	goqu.I("r.request_id"), goqu.I("r.request_ulid"), goqu.I("r.requester_id"), goqu.I("r.title_id"),
	goqu.I("r.status"), goqu.I("r.created_at"), goqu.I("r.approver_id"), goqu.I("r.approved_at"),
	goqu.I("rec.record_id"), goqu.I("rec.record_ulid"), goqu.I("rec.borrow_date"),
	goqu.I("rec.due_date"), goqu.I("rec.return_date"), goqu.I("rec.status").As("record_status"),
	goqu.I("t.title").As("title_name"), goqu.I("t.image_url"),
	goqu.I("a.author_name"), goqu.I("c.category_name"),
	goqu.I("u.full_name").As("requester_name"), goqu.I("ap.full_name").As("approver_name"),
}

var recordColumns = []any{
	goqu.I("rec.record_id"), goqu.I("rec.record_ulid"), goqu.I("rec.request_id"), goqu.I("rec.requester_id"),
	goqu.I("rec.title_id"), goqu.I("rec.borrow_date"), goqu.I("rec.due_date"), goqu.I("rec.return_date"),
	goqu.I("rec.status"), goqu.I("r.status").As("request_status"),
	goqu.I("t.title").As("title_name"), goqu.I("t.image_url"),
	goqu.I("a.author_name"), goqu.I("c.category_name"),
	goqu.I("u.full_name").As("requester_name"),
}

func (s *SQLStore) requestsFrom() *goqu.SelectDataset {
	return s.qb.From(goqu.T("borrow_requests").As("r")).
		LeftJoin(goqu.T("borrow_records").As("rec"), goqu.On(goqu.I("rec.request_id").Eq(goqu.I("r.request_id")))).
		LeftJoin(goqu.T("titles").As("t"), goqu.On(goqu.I("t.title_id").Eq(goqu.I("r.title_id")))).
		LeftJoin(goqu.T("authors").As("a"), goqu.On(goqu.I("a.author_id").Eq(goqu.I("t.author_id")))).
		LeftJoin(goqu.T("categories").As("c"), goqu.On(goqu.I("c.category_id").Eq(goqu.I("t.category_id")))).
		LeftJoin(goqu.T("accounts").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("r.requester_id")))).
		LeftJoin(goqu.T("accounts").As("ap"), goqu.On(goqu.I("ap.id").Eq(goqu.I("r.approver_id")))).
		Prepared(true)
}

func (s *SQLStore) recordsFrom() *goqu.SelectDataset {
	return s.qb.From(goqu.T("borrow_records").As("rec")).
		InnerJoin(goqu.T("borrow_requests").As("r"), goqu.On(goqu.I("r.request_id").Eq(goqu.I("rec.request_id")))).
		LeftJoin(goqu.T("titles").As("t"), goqu.On(goqu.I("t.title_id").Eq(goqu.I("rec.title_id")))).
		LeftJoin(goqu.T("authors").As("a"), goqu.On(goqu.I("a.author_id").Eq(goqu.I("t.author_id")))).
		LeftJoin(goqu.T("categories").As("c"), goqu.On(goqu.I("c.category_id").Eq(goqu.I("t.category_id")))).
		LeftJoin(goqu.T("accounts").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("rec.requester_id")))).
		Prepared(true)
}

// 表示ステータスでの絞り込み。overdue は borrowed かつ期限切れ
func borrowedWhere(col string, now time.Time, overdue bool) exp.Expression {
	if overdue {
		return goqu.And(goqu.I(col).Eq(string(StatusBorrowed)), goqu.I("rec.due_date").Lt(now))
	}
	return goqu.And(goqu.I(col).Eq(string(StatusBorrowed)), goqu.Or(
		goqu.I("rec.due_date").IsNull(),
		goqu.I("rec.due_date").Gte(now),
	))
}

func requestWhere(f RequestFilter) []exp.Expression {
	var where []exp.Expression
	if f.RequesterID != "" {
		where = append(where, goqu.I("r.requester_id").Eq(f.RequesterID))
	}
	if f.TitleID != nil {
		where = append(where, goqu.I("r.title_id").Eq(*f.TitleID))
	}
	switch f.Status {
	case "":
	case StatusOverdue:
		where = append(where, borrowedWhere("r.status", f.Now, true))
	case StatusBorrowed:
		where = append(where, borrowedWhere("r.status", f.Now, false))
	default:
		where = append(where, goqu.I("r.status").Eq(string(f.Status)))
	}
	if f.Search != "" {
		like := db.Contains(f.Search)
		where = append(where, goqu.Or(
			goqu.I("t.title").Like(like),
			goqu.I("a.author_name").Like(like),
			goqu.I("u.full_name").Like(like),
			goqu.I("r.requester_id").Like(like),
		))
	}
	return where
}

func recordWhere(f RecordFilter) []exp.Expression {
	var where []exp.Expression
	if f.RequesterID != "" {
		where = append(where, goqu.I("rec.requester_id").Eq(f.RequesterID))
	}
	if f.TitleID != nil {
		where = append(where, goqu.I("rec.title_id").Eq(*f.TitleID))
	}
	switch f.Status {
	case "":
	case StatusOverdue:
		where = append(where, borrowedWhere("rec.status", f.Now, true))
	case StatusBorrowed:
		where = append(where, borrowedWhere("rec.status", f.Now, false))
	default:
		where = append(where, goqu.I("rec.status").Eq(string(f.Status)))
	}
	return where
}

func order(p db.Page, col, tiebreak string) []exp.OrderedExpression {
	if p.Asc() {
		return []exp.OrderedExpression{goqu.I(col).Asc(), goqu.I(tiebreak).Asc()}
	}
	return []exp.OrderedExpression{goqu.I(col).Desc(), goqu.I(tiebreak).Desc()}
}

func (s *SQLStore) ListRequests(ctx context.Context, f RequestFilter, p db.Page) ([]RequestView, int64, error) {
	p = p.Normalize()
	base := s.requestsFrom().Where(requestWhere(f)...)

	q, args, err := base.Select(requestColumns...).
		Order(order(p, "r.created_at", "r.request_id")...).
		Limit(uint(p.Limit)).Offset(uint(p.Offset)).
		ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var rows []requestRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, q, args...); err != nil {
		return nil, 0, err
	}

	cq, cargs, err := base.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := sqlx.GetContext(ctx, s.db, &total, cq, cargs...); err != nil {
		return nil, 0, err
	}

	out := make([]RequestView, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.view())
	}
	return out, total, nil
}

func (s *SQLStore) GetRequest(ctx context.Context, k Key) (*RequestView, error) {
	where := goqu.I("r.request_id").Eq(k.ID)
	if k.ULID != "" {
		where = goqu.I("r.request_ulid").Eq(k.ULID)
	}
	q, args, err := s.requestsFrom().Select(requestColumns...).Where(where).ToSQL()
	if err != nil {
		return nil, err
	}
	var row requestRow
	if err := sqlx.GetContext(ctx, s.db, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound()
		}
		return nil, err
	}
	v := row.view()
	return &v, nil
}

func (s *SQLStore) ListRecords(ctx context.Context, f RecordFilter, p db.Page) ([]RecordView, int64, error) {
	p = p.Normalize()
	base := s.recordsFrom().Where(recordWhere(f)...)

	q, args, err := base.Select(recordColumns...).
		Order(order(p, "rec.borrow_date", "rec.record_id")...).
		Limit(uint(p.Limit)).Offset(uint(p.Offset)).
		ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var rows []recordRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, q, args...); err != nil {
		return nil, 0, err
	}

	cq, cargs, err := base.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := sqlx.GetContext(ctx, s.db, &total, cq, cargs...); err != nil {
		return nil, 0, err
	}

	out := make([]RecordView, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.view())
	}
	return out, total, nil
}

func (s *SQLStore) GetRecord(ctx context.Context, k Key) (*RecordView, error) {
	where := goqu.I("rec.record_id").Eq(k.ID)
	if k.ULID != "" {
		where = goqu.I("rec.record_ulid").Eq(k.ULID)
	}
	q, args, err := s.recordsFrom().Select(recordColumns...).Where(where).ToSQL()
	if err != nil {
		return nil, err
	}
	var row recordRow
	if err := sqlx.GetContext(ctx, s.db, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound()
		}
		return nil, err
	}
	v := row.view()
	return &v, nil
}
