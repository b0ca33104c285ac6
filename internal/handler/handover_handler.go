package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"careattend/internal/service"
	"careattend/internal/session"
)

// HandoverHandler handles the shared handover notice.
type HandoverHandler struct {
	handover service.HandoverService
	sessions *session.Manager
}

// NewHandoverHandler creates a new handover handler.
func NewHandoverHandler(handover service.HandoverService, sessions *session.Manager) *HandoverHandler {
	return &HandoverHandler{handover: handover, sessions: sessions}
}

// HandoverRequest carries a handover notice update.
type HandoverRequest struct {
	Content string `json:"content"`
}

// Get godoc
// @Summary Return the current handover notice
// @Tags handover
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.HandoverNotice
// @Failure 403 {object} errors.ErrorResponse
// @Router /handover [get]
func (h *HandoverHandler) Get(c echo.Context) error {
	sess := CurrentSession(c)
	if err := h.sessions.RequirePermission(sess, "view_reports"); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, h.handover.Get(c.Request().Context()))
}

// Update godoc
// @Summary Update the handover notice
// @Tags handover
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body HandoverRequest true "Notice content"
// @Success 200 {object} service.HandoverNotice
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /handover [put]
func (h *HandoverHandler) Update(c echo.Context) error {
	sess := CurrentSession(c)
	if err := h.sessions.RequirePermission(sess, "view_reports"); err != nil {
		return httpError(err)
	}

	var req HandoverRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	notice, err := h.handover.Update(c.Request().Context(), sess.User.ID, sess.User.Name, req.Content)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, notice)
}
