package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	mysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

type Store interface {
	ListTitles(ctx context.Context, f TitleFilter, p db.Page) ([]Title, int64, error)
	GetTitle(ctx context.Context, id int64) (*Title, error)
	CreateTitle(ctx context.Context, t *Title) error
	UpdateTitle(ctx context.Context, id int64, p TitlePatch) error
	DeleteTitle(ctx context.Context, id int64) error

	ListAuthors(ctx context.Context) ([]Author, error)
	CreateAuthor(ctx context.Context, a *Author) error
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
}

const dialect = "mysql"

var titleColumns = []any{
	goqu.I("b.title_id"), goqu.I("b.title"),
	goqu.I("b.author_id"), goqu.I("a.author_name"),
	goqu.I("b.category_id"), goqu.I("c.category_name"),
	goqu.I("b.isbn"), goqu.I("b.publisher"), goqu.I("b.publish_year"),
	goqu.I("b.description"), goqu.I("b.image_url"),
	goqu.I("b.available_copies"), goqu.I("b.created_at"),
}

type SQLStore struct {
	db *sqlx.DB
	qb goqu.DialectWrapper
}

func NewStore(conn *sql.DB) *SQLStore {
	return &SQLStore{db: sqlx.NewDb(conn, "mysql"), qb: goqu.Dialect(dialect)}
}

func (s *SQLStore) titlesFrom() *goqu.SelectDataset {
	return s.qb.From(goqu.T("titles").As("b")).
		LeftJoin(goqu.T("authors").As("a"), goqu.On(goqu.I("a.author_id").Eq(goqu.I("b.author_id")))).
		LeftJoin(goqu.T("categories").As("c"), goqu.On(goqu.I("c.category_id").Eq(goqu.I("b.category_id")))).
		Prepared(true)
}

func titleWhere(f TitleFilter) []exp.Expression {
	var where []exp.Expression
	if f.Search != "" {
		like := db.Contains(f.Search)
		where = append(where, goqu.Or(
			goqu.I("b.title").Like(like),
			goqu.I("a.author_name").Like(like),
			goqu.I("b.isbn").Like(like),
		))
	}
	if f.Category != "" {
		where = append(where, goqu.I("c.category_name").Eq(f.Category))
	}
	if f.CategoryID != nil {
		where = append(where, goqu.I("b.category_id").Eq(*f.CategoryID))
	}
	if f.AvailableOnly {
		where = append(where, goqu.I("b.available_copies").Gt(0))
	}
	return where
}

func (s *SQLStore) ListTitles(ctx context.Context, f TitleFilter, p db.Page) ([]Title, int64, error) {
	p = p.Normalize()
	base := s.titlesFrom().Where(titleWhere(f)...)

	order := goqu.I("b.created_at").Desc()
	if p.Asc() {
		order = goqu.I("b.created_at").Asc()
	}
	q, args, err := base.Select(titleColumns...).
		Order(order, goqu.I("b.title_id").Desc()).
		Limit(uint(p.Limit)).Offset(uint(p.Offset)).
		ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var out []Title
	if err := sqlx.SelectContext(ctx, s.db, &out, q, args...); err != nil {
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
	return out, total, nil
}

func (s *SQLStore) GetTitle(ctx context.Context, id int64) (*Title, error) {
	q, args, err := s.titlesFrom().Select(titleColumns...).Where(goqu.I("b.title_id").Eq(id)).ToSQL()
	if err != nil {
		return nil, err
	}
	var t Title
	if err := sqlx.GetContext(ctx, s.db, &t, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.ErrNotFound("title not found")
		}
		return nil, err
	}
	return &t, nil
}

func (s *SQLStore) CreateTitle(ctx context.Context, t *Title) error {
	q, args, err := s.qb.Insert("titles").Prepared(true).Rows(goqu.Record{
		"title":            t.Title,
		"author_id":        t.AuthorID,
		"category_id":      t.CategoryID,
		"isbn":             t.ISBN,
		"publisher":        t.Publisher,
		"publish_year":     t.PublishYear,
		"description":      t.Description,
		"image_url":        t.ImageURL,
		"available_copies": t.AvailableCopies,
		"created_at":       t.CreatedAt,
	}).ToSQL()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return mapWriteErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.TitleID = id
	return nil
}

func (s *SQLStore) UpdateTitle(ctx context.Context, id int64, p TitlePatch) error {
	rec := goqu.Record{}
	if p.Title != nil {
		rec["title"] = *p.Title
	}
	if p.AuthorID != nil {
		rec["author_id"] = *p.AuthorID
	}
	if p.CategoryID != nil {
		rec["category_id"] = *p.CategoryID
	}
	if p.ISBN != nil {
		rec["isbn"] = *p.ISBN
	}
	if p.Publisher != nil {
		rec["publisher"] = *p.Publisher
	}
	if p.PublishYear != nil {
		rec["publish_year"] = *p.PublishYear
	}
	if p.Description != nil {
		rec["description"] = *p.Description
	}
	if p.ImageURL != nil {
		rec["image_url"] = *p.ImageURL
	}
	if len(rec) == 0 {
		return nil
	}

	q, args, err := s.qb.Update("titles").Prepared(true).Set(rec).Where(goqu.C("title_id").Eq(id)).ToSQL()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return mapWriteErr(err)
	}
	// MySQL は値が変わらないと RowsAffected=0 を返すので存在確認は別で行う
	_, err = s.GetTitle(ctx, id)
	return err
}

func (s *SQLStore) DeleteTitle(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM titles WHERE title_id = ?`, id)
	if err != nil {
		return mapWriteErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return apierr.ErrNotFound("title not found")
	}
	return nil
}

func (s *SQLStore) ListAuthors(ctx context.Context) ([]Author, error) {
	var out []Author
	err := sqlx.SelectContext(ctx, s.db, &out, `SELECT author_id, author_name FROM authors ORDER BY author_name`)
	return out, err
}

func (s *SQLStore) CreateAuthor(ctx context.Context, a *Author) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO authors (author_name) VALUES (?)`, a.Name)
	if err != nil {
		return mapWriteErr(err)
	}
	a.AuthorID, err = res.LastInsertId()
	return err
}

func (s *SQLStore) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := sqlx.SelectContext(ctx, s.db, &out, `SELECT category_id, category_name, description FROM categories ORDER BY category_name`)
	return out, err
}

func (s *SQLStore) CreateCategory(ctx context.Context, c *Category) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO categories (category_name, description) VALUES (?, ?)`, c.Name, c.Description)
	if err != nil {
		return mapWriteErr(err)
	}
	c.CategoryID, err = res.LastInsertId()
	return err
}

func mapWriteErr(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1062: // duplicate key
			return apierr.ErrConflict("already exists")
		case 1451: // 参照されている行は削除できない
			return apierr.ErrConflict("title is referenced by borrow requests")
		case 1452: // foreign key constraint fails
			return apierr.ErrInvalid("invalid author_id or category_id")
		}
	}
	return err
}
