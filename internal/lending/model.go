package lending

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"LIBRA-backend/internal/platform/apierr"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusBorrowed Status = "borrowed"
	StatusReturned Status = "returned"
	StatusOverdue  Status = "overdue"
)

// Statuses is the full vocabulary, in lifecycle order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusBorrowed, StatusReturned, StatusOverdue}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// BorrowRequest は borrow_requests テーブルの1行
type BorrowRequest struct {
	RequestID   int64          `db:"request_id"`
	RequestULID string         `db:"request_ulid"`
	RequesterID string         `db:"requester_id"`
	TitleID     int64          `db:"title_id"`
	Status      Status         `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	ApproverID  sql.NullString `db:"approver_id"`
	ApprovedAt  sql.NullTime   `db:"approved_at"`
}

// BorrowRecord は borrow_records テーブルの1行（実際の貸出）
type BorrowRecord struct {
	RecordID    int64        `db:"record_id"`
	RecordULID  string       `db:"record_ulid"`
	RequestID   int64        `db:"request_id"`
	RequesterID string       `db:"requester_id"`
	TitleID     int64        `db:"title_id"`
	BorrowDate  time.Time    `db:"borrow_date"`
	DueDate     time.Time    `db:"due_date"`
	ReturnDate  sql.NullTime `db:"return_date"`
	Status      Status       `db:"status"` // borrowed | returned
}

// EffectiveStatus derives overdue at read time; overdue is never stored.
func (r BorrowRecord) EffectiveStatus(now time.Time) Status {
	if r.Status == StatusBorrowed && r.DueDate.Before(now) {
		return StatusOverdue
	}
	return r.Status
}

// RequestView is a request merged with its record (if any) and display names.
type RequestView struct {
	Request       BorrowRequest
	Record        *BorrowRecord
	TitleName     string
	TitleImage    string
	AuthorName    string
	CategoryName  string
	RequesterName string
	ApproverName  string
}

func (v RequestView) EffectiveStatus(now time.Time) Status {
	if v.Request.Status == StatusBorrowed && v.Record != nil {
		return v.Record.EffectiveStatus(now)
	}
	return v.Request.Status
}

type RecordView struct {
	Record        BorrowRecord
	RequestStatus Status
	TitleName     string
	TitleImage    string
	AuthorName    string
	CategoryName  string
	RequesterName string
}

// 申請一覧の検索条件（Status は overdue を含む表示上のステータス）
type RequestFilter struct {
	RequesterID string
	TitleID     *int64
	Status      Status
	Search      string
	Now         time.Time
}

type RecordFilter struct {
	RequesterID string
	TitleID     *int64
	Status      Status
	Now         time.Time
}

// Key identifies a request or record by numeric id or ULID.
type Key struct {
	ID   int64
	ULID string
}

func (k Key) String() string {
	if k.ULID != "" {
		return k.ULID
	}
	return strconv.FormatInt(k.ID, 10)
}

// ParseKey: 数値として解釈できればID、それ以外は ULID とみなす
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Key{}, apierr.ErrInvalid("id or ulid is required")
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		if id <= 0 {
			return Key{}, apierr.ErrInvalid("id must be > 0")
		}
		return Key{ID: id}, nil
	}
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return Key{}, apierr.ErrInvalid("invalid id or ulid")
	}
	return Key{ULID: u.String()}, nil
}
