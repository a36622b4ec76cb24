package catalog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/httpx"
)

type Handler struct{ svc *Service }

// RegisterRoutes mounts the public read endpoints on r and the catalog writes on admin.
func RegisterRoutes(r gin.IRoutes, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/titles", h.ListTitles)
	r.GET("/titles/:title_id", h.GetTitle)
	r.GET("/authors", h.ListAuthors)
	r.GET("/categories", h.ListCategories)

	admin.POST("/titles", h.CreateTitle)
	admin.PUT("/titles/:title_id", h.UpdateTitle)
	admin.DELETE("/titles/:title_id", h.DeleteTitle)
	admin.POST("/authors", h.CreateAuthor)
	admin.POST("/categories", h.CreateCategory)
}

// GET /titles?search=&category=&category_id=&available=true&limit=&offset=&order=
func (h *Handler) ListTitles(c *gin.Context) {
	f := TitleFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}
	if v := c.Query("category_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.CategoryID = &id
		}
	}
	if v := c.Query("available"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.AvailableOnly = b
		}
	}
	p := db.Page{
		Limit:  httpx.ParseIntDefault(c.Query("limit"), db.DefaultLimit),
		Offset: httpx.ParseIntDefault(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "desc"),
	}
	res, err := h.svc.ListTitles(c.Request.Context(), f, p)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetTitle(c *gin.Context) {
	id, err := httpx.ParamInt64(c, "title_id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	res, err := h.svc.GetTitle(c.Request.Context(), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) CreateTitle(c *gin.Context) {
	var req CreateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadJSON(c, err)
		return
	}
	res, err := h.svc.CreateTitle(c.Request.Context(), req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.Header("Location", "/titles/"+strconv.FormatInt(res.TitleID, 10))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) UpdateTitle(c *gin.Context) {
	id, err := httpx.ParamInt64(c, "title_id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	var req UpdateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadJSON(c, err)
		return
	}
	res, err := h.svc.UpdateTitle(c.Request.Context(), id, req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteTitle(c *gin.Context) {
	id, err := httpx.ParamInt64(c, "title_id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.svc.DeleteTitle(c.Request.Context(), id); err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListAuthors(c *gin.Context) {
	res, err := h.svc.ListAuthors(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res})
}

func (h *Handler) CreateAuthor(c *gin.Context) {
	var req CreateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadJSON(c, err)
		return
	}
	res, err := h.svc.CreateAuthor(c.Request.Context(), req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListCategories(c *gin.Context) {
	res, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadJSON(c, err)
		return
	}
	res, err := h.svc.CreateCategory(c.Request.Context(), req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
