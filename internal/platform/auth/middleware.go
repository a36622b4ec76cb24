package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/httpx"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
)

// RequireAuth: Authorization: Bearer <token> を検証して context に sub/role を詰める
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			httpx.Abort(c, apierr.ErrUnauthorized("missing Authorization header"))
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httpx.Abort(c, apierr.ErrUnauthorized("invalid Authorization header"))
			return
		}

		tokenStr := strings.TrimSpace(parts[1])
		if tokenStr == "" {
			httpx.Abort(c, apierr.ErrUnauthorized("empty token"))
			return
		}

		// alg は HS256 固定（none攻撃とか回避）
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || token == nil || !token.Valid {
			httpx.Abort(c, apierr.ErrUnauthorized("invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			httpx.Abort(c, apierr.ErrUnauthorized("invalid claims"))
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			httpx.Abort(c, apierr.ErrUnauthorized("invalid sub"))
			return
		}

		role, _ := claims["role"].(string)

		c.Set(CtxUserIDKey, sub)
		c.Set(CtxRoleKey, role)
		c.Next()
	}
}

// RequireRole: 例) admin のみ許可したい時に RequireAuth の後ろに追加
func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range roles {
		if r == "" {
			continue
		}
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		if UserID(c) == "" {
			httpx.Abort(c, apierr.ErrUnauthorized("missing identity"))
			return
		}
		if _, allowed := roleSet[Role(c)]; !allowed {
			httpx.Abort(c, apierr.ErrForbidden("forbidden"))
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated subject or "" when RequireAuth did not run.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

func Role(c *gin.Context) string {
	return c.GetString(CtxRoleKey)
}

func IsAdmin(c *gin.Context) bool {
	return Role(c) == RoleAdmin
}
