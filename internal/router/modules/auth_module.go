package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/altairlabs/user-management-api/internal/interface/http"
)

// AuthModule wires the login/refresh/logout plumbing.
// Public: POST /api/login, POST /api/refresh
// Protected: POST /api/logout
type AuthModule struct {
	Handler *handlers.AuthHandler
	Auth    gin.HandlerFunc
}

func NewAuthModule(h *handlers.AuthHandler, auth gin.HandlerFunc) *AuthModule {
	return &AuthModule{Handler: h, Auth: auth}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rg.POST("/login", m.Handler.Login)
	rg.POST("/refresh", m.Handler.Refresh)

	protected := rg.Group("/")
	protected.Use(m.Auth)
	{
		protected.POST("/logout", m.Handler.Logout)
	}
}
