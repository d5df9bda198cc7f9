package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/altairlabs/user-management-api/internal/application"
	"github.com/altairlabs/user-management-api/internal/domain/entity"
	"github.com/altairlabs/user-management-api/pkg/apperr"
	"github.com/altairlabs/user-management-api/pkg/helpers"
	"github.com/altairlabs/user-management-api/pkg/response"
	"github.com/altairlabs/user-management-api/pkg/validation"
)

// AuthHandler owns the token plumbing around the identity service: login,
// refresh, and logout. Tokens travel as HttpOnly cookies; each login opens a
// redis session keyed by user id whose sid the auth middleware checks.
type AuthHandler struct {
	Svc     *application.Service
	JWT     *helpers.JWTManager
	RDB     *redis.Client
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewAuthHandler(svc *application.Service, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		Svc:     svc,
		JWT:     jwt,
		RDB:     rdb,
		Logger:  logger,
		Cookies: helpers.NewCookieManager(cookieDomain, cookieSecure),
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	aexp, rexp, err := h.openSession(c, u)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	if h.Logger != nil {
		h.Logger.WithField("user_id", u.ID).Info("user logged in")
	}
	response.Success(c, http.StatusOK, loginResponse{UserID: u.ID, Email: u.Email, Username: u.Username},
		"login successful", map[string]any{"access_expires_at": aexp, "refresh_expires_at": rexp})
}

// Refresh handles POST /refresh: it rotates the session id and both tokens.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		response.Error(c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	claims, err := h.JWT.ParseRefreshToken(refresh)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}

	if h.RDB != nil {
		data, rErr := h.RDB.HGetAll(c.Request.Context(), helpers.SessionKey(claims.UserID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			response.Error(c, http.StatusUnauthorized, "session not found", nil)
			return
		}
	}

	u, err := h.Svc.CurrentUser(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	aexp, rexp, err := h.openSession(c, u)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, map[string]any{"refreshed": true},
		"token refreshed", map[string]any{"access_expires_at": aexp, "refresh_expires_at": rexp})
}

// Logout handles POST /logout: it drops the redis session and clears cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	if h.RDB != nil {
		if uid := c.GetString("userID"); uid != "" {
			_ = h.RDB.Del(c.Request.Context(), helpers.SessionKey(uid)).Err()
		}
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

// openSession mints a fresh session id and token pair, records the session in
// redis, and writes the cookies.
func (h *AuthHandler) openSession(c *gin.Context, u *entity.User) (time.Time, time.Time, error) {
	sid := uuid.NewString()
	access, aexp, err := h.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Wrap(apperr.KindUnknown, "could not issue tokens", err)
	}
	refresh, rexp, err := h.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Wrap(apperr.KindUnknown, "could not issue tokens", err)
	}

	if h.RDB != nil {
		key := helpers.SessionKey(u.ID)
		pipe := h.RDB.Pipeline()
		pipe.HSet(c.Request.Context(), key, map[string]any{
			"user_id":  u.ID,
			"email":    u.Email,
			"username": u.Username,
			"sid":      sid,
		})
		pipe.ExpireAt(c.Request.Context(), key, rexp)
		if _, rErr := pipe.Exec(c.Request.Context()); rErr != nil && h.Logger != nil {
			h.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	h.Cookies.SetPair(c, access, aexp, refresh, rexp)
	return aexp, rexp, nil
}
