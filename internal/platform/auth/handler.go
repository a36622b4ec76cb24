package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/httpx"
)

type AuthHandler struct{ svc AuthService }

// RegisterRoutes mounts the public account endpoints on r and the admin ones on admin.
func RegisterRoutes(r gin.IRoutes, admin gin.IRoutes, svc AuthService) {
	h := &AuthHandler{svc: svc}
	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)

	admin.POST("/accounts", h.CreateAdmin)
	admin.DELETE("/accounts/:id", h.DeleteAccount)
}

type LoginRequest struct {
	ID       string `json:"id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadJSON(c, err)
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req.ID, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrDisabled) {
			httpx.Error(c, apierr.ErrUnauthorized(err.Error()))
			return
		}
		httpx.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, Message: "Login successful"})
}

type RegisterRequest struct {
	ID       string `json:"id" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// Register always creates a reader; admins are created through CreateAdmin.
func (h *AuthHandler) Register(c *gin.Context) {
	h.register(c, RoleReader)
}

func (h *AuthHandler) CreateAdmin(c *gin.Context) {
	h.register(c, RoleAdmin)
}

func (h *AuthHandler) register(c *gin.Context, role string) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadJSON(c, err)
		return
	}

	err := h.svc.Register(c.Request.Context(), RegisterInput{
		ID:       req.ID,
		Password: req.Password,
		Role:     role,
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			httpx.Error(c, apierr.ErrConflict("ID already exists"))
			return
		}
		if errors.Is(err, ErrInvalidCredentials) {
			httpx.Error(c, apierr.ErrInvalid("id and password are required"))
			return
		}
		httpx.Error(c, err)
		return
	}

	slog.Info("account registered", "id", req.ID, "role", role)
	c.JSON(http.StatusCreated, gin.H{"message": "registered"})
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	id := c.Param("id")

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(c, apierr.ErrNotFound("account not found"))
			return
		}
		httpx.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
