package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/storage/memory"
)

var secret = []byte("test-secret")

func newService(t *testing.T) *auth.Service {
	t.Helper()
	return auth.NewService(memory.New().Accounts(), secret, time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	require.NoError(t, svc.Register(ctx, auth.RegisterInput{ID: "alice", Password: "secret1", FullName: "Alice"}))
	assert.ErrorIs(t, svc.Register(ctx, auth.RegisterInput{ID: "alice", Password: "other"}), auth.ErrAlreadyExists)
	assert.ErrorIs(t, svc.Register(ctx, auth.RegisterInput{ID: " ", Password: "x"}), auth.ErrInvalidCredentials)

	tok, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	parsed, err := jwt.Parse(tok, func(*jwt.Token) (any, error) { return secret, nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "alice", claims["sub"])
	assert.Equal(t, auth.RoleReader, claims["role"])

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "pw"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "changed"))

	// the first password is kept
	_, err := svc.Login(ctx, "admin", "pw")
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	require.NoError(t, svc.Register(ctx, auth.RegisterInput{ID: "bob", Password: "pw"}))

	require.NoError(t, svc.Delete(ctx, "bob"))
	assert.ErrorIs(t, svc.Delete(ctx, "bob"), auth.ErrNotFound)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newService(t)

	r := gin.New()
	r.GET("/me", auth.RequireAuth(secret), func(c *gin.Context) {
		c.String(http.StatusOK, auth.UserID(c)+":"+auth.Role(c))
	})
	r.GET("/admin", auth.RequireAuth(secret), auth.RequireRole(auth.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	call := func(path, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	reader, err := svc.Issue("alice", auth.RoleReader)
	require.NoError(t, err)
	admin, err := svc.Issue("root", auth.RoleAdmin)
	require.NoError(t, err)

	w := call("/me", "Bearer "+reader)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice:reader", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, call("/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call("/me", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call("/me", "Bearer not-a-token").Code)

	other, err := auth.NewService(memory.New().Accounts(), []byte("other"), time.Hour).Issue("alice", auth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("/admin", "Bearer "+other).Code)

	assert.Equal(t, http.StatusForbidden, call("/admin", "Bearer "+reader).Code)
	assert.Equal(t, http.StatusNoContent, call("/admin", "Bearer "+admin).Code)
}
