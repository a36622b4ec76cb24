package memory

import (
	"context"
	"database/sql"
	"slices"
	"strings"
	"time"

	"LIBRA-backend/internal/catalog"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

type catalogStore struct{ s *Store }

// resolveTitle fills the joined author/category names.
func (st *state) resolveTitle(b catalog.Title) catalog.Title {
	b.AuthorName, b.CategoryName = sql.NullString{}, sql.NullString{}
	if b.AuthorID.Valid {
		if a, ok := st.authors[b.AuthorID.Int64]; ok {
			b.AuthorName = sql.NullString{String: a.Name, Valid: true}
		}
	}
	if b.CategoryID.Valid {
		if c, ok := st.categories[b.CategoryID.Int64]; ok {
			b.CategoryName = sql.NullString{String: c.Name, Valid: true}
		}
	}
	return b
}

func (st *state) checkRefs(authorID, categoryID sql.NullInt64) error {
	if authorID.Valid {
		if _, ok := st.authors[authorID.Int64]; !ok {
			return apierr.ErrInvalid("invalid author_id or category_id")
		}
	}
	if categoryID.Valid {
		if _, ok := st.categories[categoryID.Int64]; !ok {
			return apierr.ErrInvalid("invalid author_id or category_id")
		}
	}
	return nil
}

func matchTitle(b catalog.Title, f catalog.TitleFilter) bool {
	if f.Search != "" && !containsFold(b.Title, f.Search) &&
		!containsFold(b.AuthorName.String, f.Search) && !containsFold(b.ISBN, f.Search) {
		return false
	}
	if f.Category != "" && b.CategoryName.String != f.Category {
		return false
	}
	if f.CategoryID != nil && (!b.CategoryID.Valid || b.CategoryID.Int64 != *f.CategoryID) {
		return false
	}
	if f.AvailableOnly && b.AvailableCopies <= 0 {
		return false
	}
	return true
}

func (c catalogStore) ListTitles(ctx context.Context, f catalog.TitleFilter, p db.Page) ([]catalog.Title, int64, error) {
	var out []catalog.Title
	var total int64
	err := c.s.view(ctx, func(st *state) error {
		var all []catalog.Title
		for _, b := range st.titles {
			if b = st.resolveTitle(b); matchTitle(b, f) {
				all = append(all, b)
			}
		}
		out, total = paginate(all, p, func(b catalog.Title) (int64, int64) {
			return b.CreatedAt.UnixNano(), b.TitleID
		})
		return nil
	})
	return out, total, err
}

func (c catalogStore) GetTitle(ctx context.Context, id int64) (*catalog.Title, error) {
	var out *catalog.Title
	err := c.s.view(ctx, func(st *state) error {
		b, ok := st.titles[id]
		if !ok {
			return apierr.ErrNotFound("title not found")
		}
		b = st.resolveTitle(b)
		out = &b
		return nil
	})
	return out, err
}

func (c catalogStore) CreateTitle(ctx context.Context, t *catalog.Title) error {
	return c.s.update(ctx, func(st *state) error {
		if err := st.checkRefs(t.AuthorID, t.CategoryID); err != nil {
			return err
		}
		if t.AvailableCopies < 0 {
			return apierr.ErrInvalid("available_copies must be >= 0")
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now().UTC()
		}
		st.seq.title++
		t.TitleID = st.seq.title
		st.titles[t.TitleID] = *t
		return nil
	})
}

func (c catalogStore) UpdateTitle(ctx context.Context, id int64, p catalog.TitlePatch) error {
	return c.s.update(ctx, func(st *state) error {
		b, ok := st.titles[id]
		if !ok {
			return apierr.ErrNotFound("title not found")
		}
		if p.Title != nil {
			b.Title = *p.Title
		}
		if p.AuthorID != nil {
			b.AuthorID = sql.NullInt64{Int64: *p.AuthorID, Valid: true}
		}
		if p.CategoryID != nil {
			b.CategoryID = sql.NullInt64{Int64: *p.CategoryID, Valid: true}
		}
		if p.ISBN != nil {
			b.ISBN = *p.ISBN
		}
		if p.Publisher != nil {
			b.Publisher = *p.Publisher
		}
		if p.PublishYear != nil {
			b.PublishYear = sql.NullInt32{Int32: *p.PublishYear, Valid: true}
		}
		if p.Description != nil {
			b.Description = sql.NullString{String: *p.Description, Valid: true}
		}
		if p.ImageURL != nil {
			b.ImageURL = *p.ImageURL
		}
		if err := st.checkRefs(b.AuthorID, b.CategoryID); err != nil {
			return err
		}
		st.titles[id] = b
		return nil
	})
}

func (c catalogStore) DeleteTitle(ctx context.Context, id int64) error {
	return c.s.update(ctx, func(st *state) error {
		if _, ok := st.titles[id]; !ok {
			return apierr.ErrNotFound("title not found")
		}
		for _, r := range st.requests {
			if r.TitleID == id {
				return apierr.ErrConflict("title is referenced by borrow requests")
			}
		}
		delete(st.titles, id)
		return nil
	})
}

func (c catalogStore) ListAuthors(ctx context.Context) ([]catalog.Author, error) {
	var out []catalog.Author
	err := c.s.view(ctx, func(st *state) error {
		for _, a := range st.authors {
			out = append(out, a)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b catalog.Author) int { return strings.Compare(a.Name, b.Name) })
	return out, err
}

func (c catalogStore) CreateAuthor(ctx context.Context, a *catalog.Author) error {
	return c.s.update(ctx, func(st *state) error {
		for _, x := range st.authors {
			if strings.EqualFold(x.Name, a.Name) {
				return apierr.ErrConflict("already exists")
			}
		}
		st.seq.author++
		a.AuthorID = st.seq.author
		st.authors[a.AuthorID] = *a
		return nil
	})
}

func (c catalogStore) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	err := c.s.view(ctx, func(st *state) error {
		for _, x := range st.categories {
			out = append(out, x)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b catalog.Category) int { return strings.Compare(a.Name, b.Name) })
	return out, err
}

func (c catalogStore) CreateCategory(ctx context.Context, cat *catalog.Category) error {
	return c.s.update(ctx, func(st *state) error {
		for _, x := range st.categories {
			if strings.EqualFold(x.Name, cat.Name) {
				return apierr.ErrConflict("already exists")
			}
		}
		st.seq.category++
		cat.CategoryID = st.seq.category
		st.categories[cat.CategoryID] = *cat
		return nil
	})
}
