package catalog

import "time"

// 書籍登録リクエスト
type CreateTitleRequest struct {
	Title           string  `json:"title" binding:"required"`
	AuthorID        *int64  `json:"author_id,omitempty"`
	CategoryID      *int64  `json:"category_id,omitempty"`
	ISBN            string  `json:"isbn" binding:"omitempty,isbn"`
	Publisher       string  `json:"publisher"`
	PublishYear     *int32  `json:"publish_year,omitempty" binding:"omitempty,gte=0,lte=9999"`
	Description     *string `json:"description,omitempty"`
	ImageURL        string  `json:"image_url" binding:"omitempty,url"`
	AvailableCopies *int    `json:"available_copies,omitempty" binding:"omitempty,gte=0"`
}

type UpdateTitleRequest struct {
	Title       *string `json:"title,omitempty" binding:"omitempty,min=1"`
	AuthorID    *int64  `json:"author_id,omitempty"`
	CategoryID  *int64  `json:"category_id,omitempty"`
	ISBN        *string `json:"isbn,omitempty" binding:"omitempty,isbn"`
	Publisher   *string `json:"publisher,omitempty"`
	PublishYear *int32  `json:"publish_year,omitempty" binding:"omitempty,gte=0,lte=9999"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty" binding:"omitempty,url"`
}

type CreateAuthorRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
}

type TitleResponse struct {
	TitleID         int64     `json:"title_id"`
	Title           string    `json:"title"`
	AuthorID        *int64    `json:"author_id,omitempty"`
	Author          string    `json:"author"`
	CategoryID      *int64    `json:"category_id,omitempty"`
	Category        string    `json:"category"`
	ISBN            string    `json:"isbn"`
	Publisher       string    `json:"publisher"`
	PublishYear     *int32    `json:"publish_year,omitempty"`
	Description     *string   `json:"description,omitempty"`
	ImageURL        string    `json:"image_url"`
	AvailableCopies int       `json:"available_copies"`
	Status          string    `json:"status"` // available | unavailable
	CreatedAt       time.Time `json:"created_at"`
}

type CategoryResponse struct {
	CategoryID  int64   `json:"category_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type ListTitlesResult struct {
	Items      []TitleResponse `json:"items"`
	Total      int64           `json:"total"`
	NextOffset int             `json:"next_offset"`
}
