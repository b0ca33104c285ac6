package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"careattend/internal/seclog"
	"careattend/internal/session"
)

// AdminHandler exposes the security event log to administrators.
type AdminHandler struct {
	seclog   *seclog.Logger
	sessions *session.Manager
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(sl *seclog.Logger, sessions *session.Manager) *AdminHandler {
	return &AdminHandler{seclog: sl, sessions: sessions}
}

// SecurityLog godoc
// @Summary Return the newest security events
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max entries (default 100)"
// @Success 200 {array} seclog.Entry
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/security-log [get]
func (h *AdminHandler) SecurityLog(c echo.Context) error {
	sess := CurrentSession(c)
	if err := h.sessions.RequirePermission(sess, "view_security_log"); err != nil {
		return httpError(err)
	}

	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	return c.JSON(http.StatusOK, h.seclog.Recent(c.Request().Context(), limit))
}

// CleanupSecurityLog godoc
// @Summary Drop security events past the retention window
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/security-log/cleanup [post]
func (h *AdminHandler) CleanupSecurityLog(c echo.Context) error {
	sess := CurrentSession(c)
	if err := h.sessions.RequirePermission(sess, "view_security_log"); err != nil {
		return httpError(err)
	}
	h.seclog.Cleanup(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]string{"message": "cleanup completed"})
}
