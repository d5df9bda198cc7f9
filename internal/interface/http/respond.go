package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/altairlabs/user-management-api/internal/domain/entity"
	"github.com/altairlabs/user-management-api/pkg/apperr"
	"github.com/altairlabs/user-management-api/pkg/response"
)

// userResponse is the external representation of a user record. The password
// hash has no field here, so it can never be serialized.
type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func toUserResponses(users []*entity.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

// respondError maps a service error onto the HTTP taxonomy. Domain errors
// carry their own caller-safe message; anything outside the taxonomy is
// logged with full detail and surfaced as a generic 500.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if apperr.KindOf(err) == apperr.KindUnknown && logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("unexpected error")
	}
	response.Error(c, status, apperr.Message(err), nil)
}
