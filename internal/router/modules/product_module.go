package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/trade-ham/marketplace-api/internal/interface/http"
	"github.com/trade-ham/marketplace-api/internal/interface/middleware"
)

// ProductModule wires listing, selling, liking and purchasing.
type ProductModule struct {
	Products *handlers.ProductHandler
	Purchase *handlers.PurchaseHandler
	Likes    *handlers.LikeHandler
	Tokens   middleware.AccessTokenParser
	RDB      *redis.Client
	Logger   *logrus.Logger
}

func (m *ProductModule) Register(rg *gin.RouterGroup) {
	browse := middleware.RateLimit(m.RDB, 300, time.Minute, middleware.KeyByIP(), nil)
	rg.GET("/products", browse, m.Products.List)
	rg.GET("/products/search", browse, m.Products.Search)
	rg.GET("/products/suggest", browse, m.Products.Suggest)
	rg.GET("/product/:productId", browse, middleware.OptionalAuth(m.Tokens), m.Products.Detail)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Tokens))
	auth.Use(middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/product", m.Products.Create)
		auth.PUT("/product/:productId", m.Products.Update)
		auth.DELETE("/product/:productId", m.Products.Delete)
		auth.POST("/product/:productId/image", m.Products.UploadImage)
		auth.POST("/product/:productId/like", m.Likes.Toggle)
		auth.POST("/product/:productId/purchase", m.Purchase.Purchase)
		auth.GET("/product/purchase-page/:productId",
			middleware.Deprecated(m.Logger, "/api/v1/product/{productId}/purchase"),
			m.Purchase.PurchasePage)
	}
}
