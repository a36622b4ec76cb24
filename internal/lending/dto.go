package lending

import (
	"time"

	"golang.org/x/text/language"
)

type SubmitRequest struct {
	TitleID int64 `json:"title_id" binding:"required,gt=0"`
}

// 承認/却下リクエスト。due_date は承認時のみ有効（RFC3339 か YYYY-MM-DD）
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required,decision"`
	DueDate  string `json:"due_date,omitempty" binding:"omitempty,date"`
}

type RecordResponse struct {
	RecordID      int64      `json:"record_id"`
	RecordULID    string     `json:"record_ulid"`
	RequestID     int64      `json:"request_id"`
	RequesterID   string     `json:"requester_id"`
	RequesterName string     `json:"requester_name,omitempty"`
	TitleID       int64      `json:"title_id"`
	TitleName     string     `json:"title_name,omitempty"`
	TitleImage    string     `json:"title_image,omitempty"`
	AuthorName    string     `json:"author_name,omitempty"`
	CategoryName  string     `json:"category_name,omitempty"`
	BorrowDate    time.Time  `json:"borrow_date"`
	DueDate       time.Time  `json:"due_date"`
	ReturnDate    *time.Time `json:"return_date,omitempty"`
	Status        Status     `json:"status"`
	StatusLabel   string     `json:"status_label"`
	StatusColor   string     `json:"status_color"`
}

type RequestResponse struct {
	RequestID     int64           `json:"request_id"`
	RequestULID   string          `json:"request_ulid"`
	RequesterID   string          `json:"requester_id"`
	RequesterName string          `json:"requester_name,omitempty"`
	TitleID       int64           `json:"title_id"`
	TitleName     string          `json:"title_name,omitempty"`
	TitleImage    string          `json:"title_image,omitempty"`
	AuthorName    string          `json:"author_name,omitempty"`
	CategoryName  string          `json:"category_name,omitempty"`
	Status        Status          `json:"status"`
	StatusLabel   string          `json:"status_label"`
	StatusColor   string          `json:"status_color"`
	CreatedAt     time.Time       `json:"created_at"`
	ApproverID    *string         `json:"approver_id,omitempty"`
	ApproverName  string          `json:"approver_name,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	Record        *RecordResponse `json:"record,omitempty"`
}

type ListRequestsResponse struct {
	Items      []RequestResponse `json:"items"`
	Total      int64             `json:"total"`
	NextOffset int               `json:"next_offset"`
}

type ListRecordsResponse struct {
	Items      []RecordResponse `json:"items"`
	Total      int64            `json:"total"`
	NextOffset int              `json:"next_offset"`
}

func buildRecordResponse(tag language.Tag, now time.Time, r BorrowRecord) RecordResponse {
	info := DescribeIn(tag, r.EffectiveStatus(now))
	out := RecordResponse{
		RecordID:    r.RecordID,
		RecordULID:  r.RecordULID,
		RequestID:   r.RequestID,
		RequesterID: r.RequesterID,
		TitleID:     r.TitleID,
		BorrowDate:  r.BorrowDate,
		DueDate:     r.DueDate,
		Status:      info.Status,
		StatusLabel: info.Label,
		StatusColor: info.Color,
	}
	if r.ReturnDate.Valid {
		t := r.ReturnDate.Time
		out.ReturnDate = &t
	}
	return out
}

func buildRecordViewResponse(tag language.Tag, now time.Time, v RecordView) RecordResponse {
	out := buildRecordResponse(tag, now, v.Record)
	out.RequesterName = v.RequesterName
	out.TitleName = v.TitleName
	out.TitleImage = v.TitleImage
	out.AuthorName = v.AuthorName
	out.CategoryName = v.CategoryName
	return out
}

func buildRequestResponse(tag language.Tag, now time.Time, v RequestView) RequestResponse {
	r := v.Request
	info := DescribeIn(tag, v.EffectiveStatus(now))
	out := RequestResponse{
		RequestID:     r.RequestID,
		RequestULID:   r.RequestULID,
		RequesterID:   r.RequesterID,
		RequesterName: v.RequesterName,
		TitleID:       r.TitleID,
		TitleName:     v.TitleName,
		TitleImage:    v.TitleImage,
		AuthorName:    v.AuthorName,
		CategoryName:  v.CategoryName,
		Status:        info.Status,
		StatusLabel:   info.Label,
		StatusColor:   info.Color,
		CreatedAt:     r.CreatedAt,
		ApproverName:  v.ApproverName,
	}
	if r.ApproverID.Valid {
		s := r.ApproverID.String
		out.ApproverID = &s
	}
	if r.ApprovedAt.Valid {
		t := r.ApprovedAt.Time
		out.ApprovedAt = &t
	}
	if v.Record != nil {
		rec := buildRecordResponse(tag, now, *v.Record)
		out.Record = &rec
	}
	return out
}
