package router

import (
	appuser "github.com/oksasatya/go-user-management/internal/application"
	"github.com/oksasatya/go-user-management/internal/container"
	"github.com/oksasatya/go-user-management/internal/infrastructure/events"
	"github.com/oksasatya/go-user-management/internal/infrastructure/search"
	handlers "github.com/oksasatya/go-user-management/internal/interface/http"
	"github.com/oksasatya/go-user-management/internal/router/modules"
)

type UserModuleDeps struct {
	Service *appuser.Service
	Handler *handlers.UserHandler
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	// optional collaborators stay nil interfaces when their backend is not configured
	var publisher appuser.EventPublisher
	if pub := container.GetRabbitPub(); pub != nil {
		publisher = events.NewPublisher(pub)
	}
	var searcher appuser.UserSearcher
	if es := container.GetES(); es != nil {
		searcher = search.NewUserIndex(es, cfg.ESUsersIndex, logger)
	}

	service := appuser.NewService(
		container.GetStore(),
		container.GetHasher(),
		container.GetTokens(),
		publisher,
		searcher,
		logger,
	)

	handler := handlers.NewUserHandler(
		service,
		logger,
		container.GetMetrics(),
		cfg.IsDevelopment(),
	)

	return UserModuleDeps{
		Service: service,
		Handler: handler,
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	userDeps := buildUserDeps()
	r.Add(modules.NewUserModule(userDeps.Handler, container.GetTokens(), container.GetStore(), container.GetRedis()))
	r.AddRoot(modules.NewOpsModule(
		handlers.NewHealthHandler(container.GetStore(), container.GetLogger()),
		container.GetMetrics(),
		container.GetRedis(),
	))
}
