package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/trade-ham/marketplace-api/internal/interface/middleware"
	"github.com/trade-ham/marketplace-api/internal/metrics"
)

type DebugModule struct {
	RDB      *redis.Client
	Gatherer prometheus.Gatherer
}

func NewDebugModule(rdb *redis.Client, gatherer prometheus.Gatherer) *DebugModule {
	return &DebugModule{RDB: rdb, Gatherer: gatherer}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// Public metrics endpoints, rate-limited per IP; scrapers on private networks bypass
	rl := middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
	if m.Gatherer != nil {
		rg.GET("/metrics", rl, gin.WrapH(metrics.Handler(m.Gatherer)))
	}
}
