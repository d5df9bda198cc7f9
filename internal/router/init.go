package router

import (
	"github.com/altairlabs/user-management-api/internal/application"
	"github.com/altairlabs/user-management-api/internal/container"
	pginfra "github.com/altairlabs/user-management-api/internal/infrastructure/postgres"
	handlers "github.com/altairlabs/user-management-api/internal/interface/http"
	"github.com/altairlabs/user-management-api/internal/interface/middleware"
	"github.com/altairlabs/user-management-api/internal/router/modules"
	"github.com/altairlabs/user-management-api/pkg/policy"
)

// InitModules builds the repository, identity service, handlers, and auth
// middleware from the container singletons and registers the feature modules.
// Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	repo := pginfra.NewUserRepository(container.GetPGPool())
	svc := application.NewService(repo, policy.ForMinLength(cfg.PasswordMinLength), logger)
	authMW := middleware.Auth(container.GetRedis(), container.GetJWT(), svc)

	userHandler := handlers.NewUserHandler(svc, logger)
	authHandler := handlers.NewAuthHandler(svc, container.GetJWT(), container.GetRedis(), logger, cfg.CookieDomain, cfg.CookieSecure)

	r.Add(modules.NewAuthModule(authHandler, authMW))
	r.Add(modules.NewUserModule(userHandler, authMW))
}
