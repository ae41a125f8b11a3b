package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-management/internal/application"
	"github.com/oksasatya/go-user-management/pkg/helpers"
	"github.com/oksasatya/go-user-management/pkg/response"
)

// errorStatus maps domain error kinds to HTTP status codes. Order matters only for wrapped chains.
var errorStatus = []struct {
	err    error
	status int
}{
	{application.ErrValidationFailed, http.StatusBadRequest},
	{application.ErrDuplicateEmail, http.StatusBadRequest},
	{application.ErrInvalidCredentials, http.StatusUnauthorized},
	{application.ErrAccountBlocked, http.StatusUnauthorized},
	{application.ErrRequesterNotFound, http.StatusUnauthorized},
	{helpers.ErrTokenInvalid, http.StatusUnauthorized},
	{helpers.ErrTokenExpired, http.StatusUnauthorized},
	{application.ErrAccessDenied, http.StatusForbidden},
	{application.ErrUserNotFound, http.StatusNotFound},
}

// StatusFor returns the status for err, or 500 for anything outside the domain taxonomy.
func StatusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// writeError renders err. Internal failures are logged and their detail is only exposed in development.
func writeError(c *gin.Context, logger *logrus.Logger, exposeInternal bool, err error) {
	status := StatusFor(err)
	if status != http.StatusInternalServerError {
		var verr *application.ValidationError
		if errors.As(err, &verr) {
			response.Error(c, status, application.ErrValidationFailed.Error(), verr.Fields)
			return
		}
		response.Error(c, status, err.Error(), nil)
		return
	}

	if logger != nil {
		helpers.LogError(logger, "request failed", err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		})
	}
	var detail any
	if exposeInternal {
		detail = err.Error()
	}
	response.Error(c, status, "internal server error", detail)
}
