package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/httpx"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/titles/:title_id/availability", h.Availability)
	admin.PUT("/titles/:title_id/stock", h.SetStock)
}

func (h *Handler) Availability(c *gin.Context) {
	id, err := httpx.ParamInt64(c, "title_id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	res, err := h.svc.CheckAvailable(c.Request.Context(), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PUT /titles/:title_id/stock {"available_copies": n}
func (h *Handler) SetStock(c *gin.Context) {
	id, err := httpx.ParamInt64(c, "title_id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	var req SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadJSON(c, err)
		return
	}
	res, err := h.svc.SetStock(c.Request.Context(), id, *req.AvailableCopies, auth.UserID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
