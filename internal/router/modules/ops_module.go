package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-user-management/internal/interface/http"
	"github.com/oksasatya/go-user-management/internal/interface/middleware"
	"github.com/oksasatya/go-user-management/pkg/metrics"
)

// OpsModule serves /health and, when metrics are given, /metrics.
type OpsModule struct {
	Health  *handlers.HealthHandler
	Metrics *metrics.Metrics
	Redis   *redis.Client
}

func NewOpsModule(h *handlers.HealthHandler, m *metrics.Metrics, rdb *redis.Client) *OpsModule {
	return &OpsModule{Health: h, Metrics: m, Redis: rdb}
}

func (m *OpsModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", m.Health.Health)

	if m.Metrics != nil {
		// scrapers on private networks are never limited
		rl := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
		rg.GET("/metrics", rl, gin.WrapH(m.Metrics.Handler()))
	}
}
