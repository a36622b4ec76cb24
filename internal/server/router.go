package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"LIBRA-backend/docs"
	"LIBRA-backend/internal/catalog"
	"LIBRA-backend/internal/inventory"
	"LIBRA-backend/internal/lending"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/httpx"
)

const APIPrefix = "/api/v1"

type RouterOptions struct {
	Mode         string
	AllowOrigins []string
	// Ping backs /healthz; nil means always healthy.
	Ping func(ctx context.Context) error
}

func NewRouter(svc Services, opt RouterOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if opt.Mode == db.ModeDev {
		// CORS（開発中のみ必要）
		origins := opt.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000"}
		}
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept-Language"},
			ExposeHeaders:    []string{"Content-Length", "Location"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
		docs.SwaggerInfo.Schemes = []string{"https", "http"}
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) {
		if opt.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := opt.Ping(ctx); err != nil {
				c.String(http.StatusServiceUnavailable, "db unavailable")
				return
			}
		}
		c.String(http.StatusOK, "ok")
	})

	// /api/v1: public / 認証済み / admin
	api := r.Group(APIPrefix)
	user := api.Group("", auth.RequireAuth(svc.Auth.Secret()))
	admin := api.Group("", auth.RequireAuth(svc.Auth.Secret()), auth.RequireRole(auth.RoleAdmin))

	auth.RegisterRoutes(api, admin, svc.Auth)
	catalog.RegisterRoutes(api, admin, svc.Catalog)
	inventory.RegisterRoutes(api, admin, svc.Inventory)
	lending.RegisterRoutes(api, user, admin, svc.Lending)

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			httpx.Error(c, apierr.ErrNotFound("no such endpoint"))
			return
		}
		c.Status(http.StatusNotFound)
	})
	return r
}
