package catalog

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log.With("component", "catalog"), now: time.Now}
}

func (s *Service) ListTitles(ctx context.Context, f TitleFilter, p db.Page) (ListTitlesResult, error) {
	f.Search = strings.TrimSpace(f.Search)
	f.Category = strings.TrimSpace(f.Category)
	p = p.Normalize()

	rows, total, err := s.store.ListTitles(ctx, f, p)
	if err != nil {
		return ListTitlesResult{}, err
	}
	items := make([]TitleResponse, 0, len(rows))
	for i := range rows {
		items = append(items, buildTitleResponse(&rows[i]))
	}
	return ListTitlesResult{Items: items, Total: total, NextOffset: p.NextOffset(total)}, nil
}

func (s *Service) GetTitle(ctx context.Context, id int64) (TitleResponse, error) {
	if id <= 0 {
		return TitleResponse{}, apierr.ErrInvalid("title_id must be > 0")
	}
	t, err := s.store.GetTitle(ctx, id)
	if err != nil {
		return TitleResponse{}, err
	}
	return buildTitleResponse(t), nil
}

// CreateTitle registers a title. The initial copy count is set here once;
// afterwards only the inventory ledger changes it.
func (s *Service) CreateTitle(ctx context.Context, in CreateTitleRequest) (TitleResponse, error) {
	name := strings.TrimSpace(in.Title)
	if name == "" {
		return TitleResponse{}, apierr.ErrInvalid("title is required")
	}
	copies := 1
	if in.AvailableCopies != nil {
		if *in.AvailableCopies < 0 {
			return TitleResponse{}, apierr.ErrInvalid("available_copies must be >= 0")
		}
		copies = *in.AvailableCopies
	}

	t := &Title{
		Title:           name,
		AuthorID:        toNullInt64(in.AuthorID),
		CategoryID:      toNullInt64(in.CategoryID),
		ISBN:            strings.TrimSpace(in.ISBN),
		Publisher:       strings.TrimSpace(in.Publisher),
		Description:     toNullString(in.Description),
		ImageURL:        strings.TrimSpace(in.ImageURL),
		AvailableCopies: copies,
		CreatedAt:       s.now().UTC(),
	}
	if in.PublishYear != nil {
		t.PublishYear = sql.NullInt32{Int32: *in.PublishYear, Valid: true}
	}

	if err := s.store.CreateTitle(ctx, t); err != nil {
		return TitleResponse{}, err
	}
	s.log.Info("title created", "title_id", t.TitleID, "available_copies", copies)

	// 著者名などを JOIN 済みで返す
	return s.GetTitle(ctx, t.TitleID)
}

func (s *Service) UpdateTitle(ctx context.Context, id int64, in UpdateTitleRequest) (TitleResponse, error) {
	if id <= 0 {
		return TitleResponse{}, apierr.ErrInvalid("title_id must be > 0")
	}
	p := TitlePatch{
		Title:       trimPtr(in.Title),
		AuthorID:    in.AuthorID,
		CategoryID:  in.CategoryID,
		ISBN:        trimPtr(in.ISBN),
		Publisher:   trimPtr(in.Publisher),
		PublishYear: in.PublishYear,
		Description: in.Description,
		ImageURL:    trimPtr(in.ImageURL),
	}
	if p.Title != nil && *p.Title == "" {
		return TitleResponse{}, apierr.ErrInvalid("title must not be empty")
	}
	if p.Empty() {
		return TitleResponse{}, apierr.ErrInvalid("no fields to update")
	}
	if err := s.store.UpdateTitle(ctx, id, p); err != nil {
		return TitleResponse{}, err
	}
	return s.GetTitle(ctx, id)
}

// DeleteTitle fails with CONFLICT while borrow requests or records still reference the title.
func (s *Service) DeleteTitle(ctx context.Context, id int64) error {
	if id <= 0 {
		return apierr.ErrInvalid("title_id must be > 0")
	}
	if err := s.store.DeleteTitle(ctx, id); err != nil {
		return err
	}
	s.log.Info("title deleted", "title_id", id)
	return nil
}

func (s *Service) ListAuthors(ctx context.Context) ([]Author, error) {
	out, err := s.store.ListAuthors(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Author{}
	}
	return out, nil
}

func (s *Service) CreateAuthor(ctx context.Context, in CreateAuthorRequest) (Author, error) {
	a := Author{Name: strings.TrimSpace(in.Name)}
	if a.Name == "" {
		return Author{}, apierr.ErrInvalid("name is required")
	}
	if err := s.store.CreateAuthor(ctx, &a); err != nil {
		return Author{}, err
	}
	return a, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]CategoryResponse, error) {
	rows, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, 0, len(rows))
	for _, c := range rows {
		out = append(out, buildCategoryResponse(c))
	}
	return out, nil
}

func (s *Service) CreateCategory(ctx context.Context, in CreateCategoryRequest) (CategoryResponse, error) {
	c := Category{Name: strings.TrimSpace(in.Name), Description: toNullString(in.Description)}
	if c.Name == "" {
		return CategoryResponse{}, apierr.ErrInvalid("name is required")
	}
	if err := s.store.CreateCategory(ctx, &c); err != nil {
		return CategoryResponse{}, err
	}
	return buildCategoryResponse(c), nil
}

// helpers

func buildTitleResponse(t *Title) TitleResponse {
	resp := TitleResponse{
		TitleID:         t.TitleID,
		Title:           t.Title,
		Author:          "Unknown Author",
		Category:        "Uncategorized",
		ISBN:            t.ISBN,
		Publisher:       t.Publisher,
		ImageURL:        t.ImageURL,
		AvailableCopies: t.AvailableCopies,
		Status:          "unavailable",
		CreatedAt:       t.CreatedAt,
	}
	if t.AvailableCopies > 0 {
		resp.Status = "available"
	}
	if t.AuthorID.Valid {
		v := t.AuthorID.Int64
		resp.AuthorID = &v
	}
	if t.AuthorName.Valid && t.AuthorName.String != "" {
		resp.Author = t.AuthorName.String
	}
	if t.CategoryID.Valid {
		v := t.CategoryID.Int64
		resp.CategoryID = &v
	}
	if t.CategoryName.Valid && t.CategoryName.String != "" {
		resp.Category = t.CategoryName.String
	}
	if t.PublishYear.Valid {
		v := t.PublishYear.Int32
		resp.PublishYear = &v
	}
	if t.Description.Valid {
		v := t.Description.String
		resp.Description = &v
	}
	return resp
}

func buildCategoryResponse(c Category) CategoryResponse {
	resp := CategoryResponse{CategoryID: c.CategoryID, Name: c.Name}
	if c.Description.Valid {
		v := c.Description.String
		resp.Description = &v
	}
	return resp
}

func toNullString(s *string) (ns sql.NullString) {
	if s != nil && strings.TrimSpace(*s) != "" {
		ns.Valid, ns.String = true, *s
	}
	return
}

func toNullInt64(v *int64) (n sql.NullInt64) {
	if v != nil && *v > 0 {
		n.Valid, n.Int64 = true, *v
	}
	return
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
