package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/trade-ham/marketplace-api/internal/interface/http"
	"github.com/trade-ham/marketplace-api/internal/interface/middleware"
)

// MypageModule wires the signed-in user's own pages.
// Protected: GET /mypage/{likes,sells,purchases,profile}, PUT /mypage/profile, GET /notifications
type MypageModule struct {
	Mypage        *handlers.MypageHandler
	Likes         *handlers.LikeHandler
	Users         *handlers.UserHandler
	Notifications *handlers.NotificationHandler
	Tokens        middleware.AccessTokenParser
	RDB           *redis.Client
}

func (m *MypageModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Tokens))
	auth.Use(
		middleware.RateLimit(m.RDB, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/mypage/likes", m.Likes.Liked)
		auth.GET("/mypage/sells", m.Mypage.Sells)
		auth.GET("/mypage/purchases", m.Mypage.Purchases)
		auth.GET("/mypage/profile", m.Users.GetProfile)
		auth.PUT("/mypage/profile", m.Users.UpdateProfile)
		auth.GET("/notifications", m.Notifications.List)
	}
}
