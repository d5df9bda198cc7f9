package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/altairlabs/user-management-api/internal/interface/http"
)

// UserModule wires the user CRUD endpoints. Every route requires an
// authenticated acting identity; per-operation policy (self vs superuser)
// lives in the identity service, not in the routing table.
//
// GET    /api/users          list users (superuser)
// POST   /api/users          create user (superuser)
// GET    /api/users/me       read own record
// PUT    /api/users/me       update own record
// GET    /api/users/:id      read by id (self or superuser)
// PUT    /api/users/:id      update by id (superuser)
// DELETE /api/users/:id      delete by id (superuser)
type UserModule struct {
	Handler *handlers.UserHandler
	Auth    gin.HandlerFunc
}

func NewUserModule(h *handlers.UserHandler, auth gin.HandlerFunc) *UserModule {
	return &UserModule{Handler: h, Auth: auth}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(m.Auth)
	{
		users.GET("", m.Handler.List)
		users.POST("", m.Handler.Create)
		users.GET("/me", m.Handler.GetMe)
		users.PUT("/me", m.Handler.UpdateMe)
		users.GET("/:id", m.Handler.GetByID)
		users.PUT("/:id", m.Handler.UpdateByID)
		users.DELETE("/:id", m.Handler.DeleteByID)
	}
}
