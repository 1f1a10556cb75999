package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/trade-ham/marketplace-api/internal/interface/http"
	"github.com/trade-ham/marketplace-api/internal/interface/middleware"
)

// AuthModule wires OAuth login and token lifecycle routes.
// Public: GET /oauth2/authorization/:provider, GET /login/oauth2/code/:provider,
// POST /reissue, POST /reissue/access, POST /logout, POST /logout/all
type AuthModule struct {
	Handler *handlers.AuthHandler
	RDB     *redis.Client
}

func NewAuthModule(h *handlers.AuthHandler, rdb *redis.Client) *AuthModule {
	return &AuthModule{Handler: h, RDB: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(m.RDB, 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	reissueLimiter := middleware.RateLimit(m.RDB, 60, time.Minute, middleware.KeyByIP(), nil)

	rg.GET("/oauth2/authorization/:provider", loginLimiter, m.Handler.Authorize)
	rg.GET("/login/oauth2/code/:provider", loginLimiter, m.Handler.Callback)
	rg.POST("/reissue", reissueLimiter, m.Handler.Reissue)
	rg.POST("/reissue/access", reissueLimiter, m.Handler.ReissueAccess)
	rg.POST("/logout", reissueLimiter, m.Handler.Logout)
	rg.POST("/logout/all", reissueLimiter, m.Handler.LogoutAll)
}
