package catalog

import (
	"database/sql"
	"time"
)

// Title は titles テーブルの1行（著者名・カテゴリ名は JOIN 結果）
type Title struct {
	TitleID         int64          `db:"title_id"`
	Title           string         `db:"title"`
	AuthorID        sql.NullInt64  `db:"author_id"`
	AuthorName      sql.NullString `db:"author_name"`
	CategoryID      sql.NullInt64  `db:"category_id"`
	CategoryName    sql.NullString `db:"category_name"`
	ISBN            string         `db:"isbn"`
	Publisher       string         `db:"publisher"`
	PublishYear     sql.NullInt32  `db:"publish_year"`
	Description     sql.NullString `db:"description"`
	ImageURL        string         `db:"image_url"`
	AvailableCopies int            `db:"available_copies"`
	CreatedAt       time.Time      `db:"created_at"`
}

type Author struct {
	AuthorID int64  `db:"author_id" json:"author_id"`
	Name     string `db:"author_name" json:"name"`
}

type Category struct {
	CategoryID  int64          `db:"category_id"`
	Name        string         `db:"category_name"`
	Description sql.NullString `db:"description"`
}

// 書籍一覧の検索条件
type TitleFilter struct {
	Search        string // title / author / isbn 部分一致
	Category      string // category_name 完全一致
	CategoryID    *int64
	AvailableOnly bool
}

// TitlePatch carries the metadata an admin may change. Nil fields are left as is.
// available_copies is deliberately absent: stock changes go through the inventory ledger.
type TitlePatch struct {
	Title       *string
	AuthorID    *int64
	CategoryID  *int64
	ISBN        *string
	Publisher   *string
	PublishYear *int32
	Description *string
	ImageURL    *string
}

func (p TitlePatch) Empty() bool {
	return p.Title == nil && p.AuthorID == nil && p.CategoryID == nil && p.ISBN == nil &&
		p.Publisher == nil && p.PublishYear == nil && p.Description == nil && p.ImageURL == nil
}
