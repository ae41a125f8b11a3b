package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-user-management/internal/domain/repository"
	handlers "github.com/oksasatya/go-user-management/internal/interface/http"
	"github.com/oksasatya/go-user-management/internal/interface/middleware"
)

// UserModule wires user HTTP handlers and auth middleware into routes under /users.
// Public: POST /register, POST /login
// Protected: GET /, GET /search (admin), GET /:id, PATCH /:id/block
type UserModule struct {
	Handler *handlers.UserHandler
	Tokens  middleware.TokenVerifier
	Users   repository.UserRepository
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, tokens middleware.TokenVerifier, users repository.UserRepository, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, Tokens: tokens, Users: users, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/users")

	// Public with rate limiting
	registerLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIP(), nil) // 10 req/min per IP
	loginLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), nil)

	g.POST("/register", registerLimiter, m.Handler.Register)
	g.POST("/login", loginLimiter, m.Handler.Login)

	// Protected
	auth := g.Group("")
	auth.Use(
		middleware.Auth(m.Tokens, m.Users, m.Handler.Logger),
		middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("", middleware.AdminOnly(), m.Handler.ListUsers)
		auth.GET("/search", middleware.AdminOnly(), m.Handler.SearchUsers)
		auth.GET("/:id", m.Handler.GetUser)
		auth.PATCH("/:id/block", m.Handler.BlockUser)
	}
}
