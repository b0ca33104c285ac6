package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "careattend/internal/errors"
	"careattend/internal/session"
)

// SessionContextKey is where the session middleware stores the validated
// session on the echo context.
const SessionContextKey = "app_session"

// CurrentSession returns the session attached by the middleware.
func CurrentSession(c echo.Context) *session.Session {
	sess, _ := c.Get(SessionContextKey).(*session.Session)
	return sess
}

// httpError converts a service fault into the standardized error response.
func httpError(err error) *echo.HTTPError {
	var e *apperrors.Error
	if !errors.As(err, &e) {
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
	return echo.NewHTTPError(e.Status, e.ToErrorResponse())
}
