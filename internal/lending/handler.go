package lending

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/httpx"
	"LIBRA-backend/internal/platform/validation"
)

type Handler struct{ svc *Service }

// RegisterRoutes: user は認証済みグループ、admin は admin ロール限定グループ
func RegisterRoutes(public, user, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	public.GET("/statuses", h.Statuses)

	user.POST("/borrow-requests", h.Submit)
	user.GET("/borrow-requests/mine", h.MyRequests)
	user.GET("/borrow-requests/:key", h.GetRequest)

	admin.GET("/borrow-requests", h.ListRequests)
	admin.PUT("/borrow-requests/:key/decision", h.Decide)
	admin.DELETE("/borrow-requests/:key", h.RemoveRequest)
	admin.GET("/borrow-records", h.ListRecords)
	admin.GET("/borrow-records/:key", h.GetRecord)
	admin.PUT("/borrow-records/:key/return", h.MarkReturned)
}

func pageFromQuery(c *gin.Context) db.Page {
	return db.Page{
		Limit:  httpx.ParseIntDefault(c.Query("limit"), db.DefaultLimit),
		Offset: httpx.ParseIntDefault(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "desc"),
	}
}

func titleIDQuery(c *gin.Context) (*int64, error) {
	v := c.Query("title_id")
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, apierr.ErrInvalid("title_id must be a positive integer")
	}
	return &id, nil
}

// @Summary      Status vocabulary
// @Tags         lending
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /statuses [get]
func (h *Handler) Statuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": Vocabulary(httpx.Lang(c))})
}

// @Summary      Submit a borrow request
// @Tags         lending
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      SubmitRequest  true  "title to borrow"
// @Success      201      {object}  RequestResponse
// @Failure      404      {object}  httpx.ErrorDTO
// @Failure      409      {object}  httpx.ErrorDTO  "OUT_OF_STOCK / DUPLICATE_PENDING_REQUEST"
// @Router       /borrow-requests [post]
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadJSON(c, err)
		return
	}
	r, err := h.svc.Submit(c.Request.Context(), auth.UserID(c), req.TitleID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.Header("Location", "/borrow-requests/"+r.RequestULID)
	c.JSON(http.StatusCreated, buildRequestResponse(httpx.Lang(c), h.svc.Now(), RequestView{Request: *r}))
}

// @Summary      My borrow requests
// @Tags         lending
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "pending|rejected|borrowed|returned|overdue"
// @Param        limit   query     int     false  "page size"
// @Param        offset  query     int     false  "offset"
// @Param        order   query     string  false  "asc|desc"
// @Success      200     {object}  ListRequestsResponse
// @Router       /borrow-requests/mine [get]
func (h *Handler) MyRequests(c *gin.Context) {
	res, err := h.svc.MyRequests(c.Request.Context(), auth.UserID(c), Status(c.Query("status")), pageFromQuery(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, h.requestPage(c, res))
}

// @Summary      List borrow requests (admin)
// @Tags         lending
// @Produce      json
// @Security     BearerAuth
// @Param        requester_id  query     string  false  "requester"
// @Param        title_id      query     int     false  "title"
// @Param        status        query     string  false  "status, overdue included"
// @Param        search        query     string  false  "title / author / requester"
// @Success      200           {object}  ListRequestsResponse
// @Router       /borrow-requests [get]
func (h *Handler) ListRequests(c *gin.Context) {
	titleID, err := titleIDQuery(c)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	f := RequestFilter{
		RequesterID: strings.TrimSpace(c.Query("requester_id")),
		TitleID:     titleID,
		Status:      Status(c.Query("status")),
		Search:      c.Query("search"),
	}
	res, err := h.svc.ListRequests(c.Request.Context(), f, pageFromQuery(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, h.requestPage(c, res))
}

func (h *Handler) requestPage(c *gin.Context, p *RequestPage) ListRequestsResponse {
	tag, now := httpx.Lang(c), h.svc.Now()
	out := ListRequestsResponse{Items: make([]RequestResponse, 0, len(p.Items)), Total: p.Total, NextOffset: p.NextOffset}
	for _, v := range p.Items {
		out.Items = append(out.Items, buildRequestResponse(tag, now, v))
	}
	return out
}

// @Summary      Get a borrow request by id or ULID
// @Tags         lending
// @Produce      json
// @Security     BearerAuth
// @Param        key  path      string  true  "request id or ULID"
// @Success      200  {object}  RequestResponse
// @Failure      404  {object}  httpx.ErrorDTO
// @Router       /borrow-requests/{key} [get]
func (h *Handler) GetRequest(c *gin.Context) {
	k, err := ParseKey(c.Param("key"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	v, err := h.svc.GetRequest(c.Request.Context(), k, Viewer{ID: auth.UserID(c), Admin: auth.IsAdmin(c)})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, buildRequestResponse(httpx.Lang(c), h.svc.Now(), *v))
}

// @Summary      Approve or reject a pending request (admin)
// @Tags         lending
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        key      path      string           true  "request id or ULID"
// @Param        payload  body      DecisionRequest  true  "decision"
// @Success      200      {object}  RequestResponse
// @Failure      409      {object}  httpx.ErrorDTO  "OUT_OF_STOCK / INVALID_STATE_TRANSITION"
// @Router       /borrow-requests/{key}/decision [put]
func (h *Handler) Decide(c *gin.Context) {
	k, err := ParseKey(c.Param("key"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadJSON(c, err)
		return
	}
	in := DecideInput{
		Key:        k,
		Decision:   Status(strings.ToLower(strings.TrimSpace(req.Decision))),
		ApproverID: auth.UserID(c),
	}
	if req.DueDate != "" {
		// binding の date タグで検証済み
		d, _ := validation.ParseDate(req.DueDate)
		in.DueDate = &d
	}
	res, err := h.svc.Decide(c.Request.Context(), in)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, buildRequestResponse(httpx.Lang(c), h.svc.Now(), RequestView{Request: res.Request, Record: res.Record}))
}

// @Summary      Remove a request that has no loan (admin)
// @Tags         lending
// @Security     BearerAuth
// @Param        key  path  string  true  "request id or ULID"
// @Success      204
// @Failure      409  {object}  httpx.ErrorDTO
// @Router       /borrow-requests/{key} [delete]
func (h *Handler) RemoveRequest(c *gin.Context) {
	k, err := ParseKey(c.Param("key"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.svc.RemoveRequest(c.Request.Context(), k, auth.UserID(c)); err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      List borrow records (admin)
// @Tags         lending
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "borrowed|returned|overdue"
// @Success      200     {object}  ListRecordsResponse
// @Router       /borrow-records [get]
func (h *Handler) ListRecords(c *gin.Context) {
	titleID, err := titleIDQuery(c)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	f := RecordFilter{
		RequesterID: strings.TrimSpace(c.Query("requester_id")),
		TitleID:     titleID,
		Status:      Status(c.Query("status")),
	}
	res, err := h.svc.ListRecords(c.Request.Context(), f, pageFromQuery(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	tag, now := httpx.Lang(c), h.svc.Now()
	out := ListRecordsResponse{Items: make([]RecordResponse, 0, len(res.Items)), Total: res.Total, NextOffset: res.NextOffset}
	for _, v := range res.Items {
		out.Items = append(out.Items, buildRecordViewResponse(tag, now, v))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetRecord(c *gin.Context) {
	k, err := ParseKey(c.Param("key"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	v, err := h.svc.GetRecord(c.Request.Context(), k)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, buildRecordViewResponse(httpx.Lang(c), h.svc.Now(), *v))
}

// @Summary      Mark a loan returned (admin)
// @Tags         lending
// @Produce      json
// @Security     BearerAuth
// @Param        key  path      string  true  "record id or ULID"
// @Success      200  {object}  RecordResponse
// @Failure      409  {object}  httpx.ErrorDTO  "ALREADY_RETURNED"
// @Router       /borrow-records/{key}/return [put]
func (h *Handler) MarkReturned(c *gin.Context) {
	k, err := ParseKey(c.Param("key"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	rec, err := h.svc.MarkReturned(c.Request.Context(), k, auth.UserID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, buildRecordResponse(httpx.Lang(c), h.svc.Now(), *rec))
}
