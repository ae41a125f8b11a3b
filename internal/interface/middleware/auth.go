package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-management/internal/application"
	"github.com/oksasatya/go-user-management/internal/domain/entity"
	"github.com/oksasatya/go-user-management/internal/domain/repository"
	"github.com/oksasatya/go-user-management/pkg/helpers"
	"github.com/oksasatya/go-user-management/pkg/response"
)

const (
	CtxUserIDKey   = "userID"
	CtxUserRoleKey = "userRole"
)

// TokenVerifier is satisfied by helpers.TokenManager.
type TokenVerifier interface {
	Verify(token string) (*helpers.TokenClaims, error)
}

// Auth reads the bearer token, verifies it, and re-checks the subject against the store:
// a missing or blocked account is rejected even while its token is still valid.
// On success the caller's identity is stored under CtxUserIDKey.
func Auth(tokens TokenVerifier, users repository.UserRepository, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, http.StatusUnauthorized, "token not provided", nil)
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, helpers.ErrTokenExpired) {
				msg = "token expired"
			}
			response.Error(c, http.StatusUnauthorized, msg, nil)
			return
		}

		u, err := users.FindByID(c.Request.Context(), claims.UserID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			response.Error(c, http.StatusUnauthorized, application.ErrRequesterNotFound.Error(), nil)
			return
		case err != nil:
			if logger != nil {
				logger.WithError(err).WithField("user_id", claims.UserID).Error("auth: load user failed")
			}
			response.Error(c, http.StatusInternalServerError, "internal server error", nil)
			return
		case !u.IsActive:
			response.Error(c, http.StatusUnauthorized, application.ErrAccountBlocked.Error(), nil)
			return
		}

		c.Set(CtxUserIDKey, u.ID)
		c.Set(CtxUserRoleKey, string(u.Role))
		c.Next()
	}
}

// AdminOnly must run after Auth. It rejects callers whose stored role is not admin.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxUserRoleKey) != string(entity.RoleAdmin) {
			response.Error(c, http.StatusForbidden, application.ErrAccessDenied.Error(), nil)
			return
		}
		c.Next()
	}
}

// Identity returns the authenticated caller set by Auth.
func Identity(c *gin.Context) application.Identity {
	return application.Identity{UserID: c.GetString(CtxUserIDKey)}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
