package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/altairlabs/user-management-api/internal/application"
	"github.com/altairlabs/user-management-api/internal/domain/entity"
	"github.com/altairlabs/user-management-api/internal/interface/middleware"
	"github.com/altairlabs/user-management-api/pkg/response"
	"github.com/altairlabs/user-management-api/pkg/validation"
)

type UserHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type createUserRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Username    string `json:"username" binding:"required,username"`
	Password    string `json:"password" binding:"required"`
	IsActive    *bool  `json:"is_active"`
	IsSuperuser *bool  `json:"is_superuser"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

// updateUserRequest distinguishes absent fields from present ones: only
// non-nil fields end up in the patch.
type updateUserRequest struct {
	Email       *string `json:"email"`
	Username    *string `json:"username"`
	Password    *string `json:"password"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
}

func (r updateUserRequest) patch() entity.UserPatch {
	return entity.UserPatch{
		Email:       r.Email,
		Username:    r.Username,
		Password:    r.Password,
		IsActive:    r.IsActive,
		IsSuperuser: r.IsSuperuser,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
	}
}

// List handles GET /users?skip=0&limit=100.
func (h *UserHandler) List(c *gin.Context) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query", map[string]string{"skip": "must be an integer"})
		return
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query", map[string]string{"limit": "must be an integer"})
		return
	}

	users, err := h.Svc.List(c.Request.Context(), middleware.ActorFrom(c), skip, limit)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponses(users), "users", map[string]any{"skip": skip, "count": len(users)})
}

// Create handles POST /users.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Create(c.Request.Context(), middleware.ActorFrom(c), application.CreateUserInput{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		IsActive:    req.IsActive,
		IsSuperuser: req.IsSuperuser,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u), "user created", nil)
}

// GetMe handles GET /users/me.
func (h *UserHandler) GetMe(c *gin.Context) {
	u := h.Svc.GetSelf(middleware.ActorFrom(c))
	response.Success(c, http.StatusOK, toUserResponse(u), "current user", nil)
}

// UpdateMe handles PUT /users/me.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.UpdateSelf(c.Request.Context(), middleware.ActorFrom(c), req.patch())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user updated", nil)
}

// GetByID handles GET /users/:id.
func (h *UserHandler) GetByID(c *gin.Context) {
	u, err := h.Svc.GetByID(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user", nil)
}

// UpdateByID handles PUT /users/:id.
func (h *UserHandler) UpdateByID(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.UpdateByID(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req.patch())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user updated", nil)
}

// DeleteByID handles DELETE /users/:id and echoes the record as it existed
// before deletion.
func (h *UserHandler) DeleteByID(c *gin.Context) {
	u, err := h.Svc.DeleteByID(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user deleted", nil)
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
