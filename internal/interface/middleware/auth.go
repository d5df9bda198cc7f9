package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/altairlabs/user-management-api/internal/application"
	"github.com/altairlabs/user-management-api/internal/domain/entity"
	"github.com/altairlabs/user-management-api/pkg/apperr"
	"github.com/altairlabs/user-management-api/pkg/helpers"
	"github.com/altairlabs/user-management-api/pkg/response"
)

const (
	CtxUserIDKey = "userID"
	CtxActorKey  = "actor"
)

// Auth validates the access token (cookie or bearer header), checks that the
// redis session behind it is still current, and resolves the acting identity
// from the store. A deleted or deactivated account fails here with 401 even
// if its token has not expired yet.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager, svc *application.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			response.AbortError(c, http.StatusUnauthorized, "not authenticated", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}

		if rdb != nil {
			data, err := rdb.HGetAll(c.Request.Context(), helpers.SessionKey(claims.UserID)).Result()
			if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
				response.AbortError(c, http.StatusUnauthorized, "session not found", nil)
				return
			}
		}

		actor, err := svc.CurrentUser(c.Request.Context(), claims.UserID)
		if err != nil {
			response.AbortError(c, apperr.HTTPStatus(err), apperr.Message(err), nil)
			return
		}

		c.Set(CtxUserIDKey, actor.ID)
		c.Set(CtxActorKey, actor)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if t, err := c.Cookie("access_token"); err == nil && t != "" {
		return t
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// ActorFrom returns the acting identity resolved by Auth, or nil when the
// request was not authenticated.
func ActorFrom(c *gin.Context) *entity.User {
	if v, ok := c.Get(CtxActorKey); ok {
		if u, ok := v.(*entity.User); ok {
			return u
		}
	}
	return nil
}
