package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"careattend/internal/service"
)

// AttendanceHandler handles clock and break endpoints.
type AttendanceHandler struct {
	attendance service.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(attendance service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// ClockOutRequest carries the explicit confirmations a clock-out may need.
type ClockOutRequest struct {
	ForceEndOpenBreak      bool `json:"force_end_open_break"`
	AcceptEarlyLeave       bool `json:"accept_early_leave"`
	AcknowledgeUncommented bool `json:"acknowledge_uncommented"`
}

// ClockIn godoc
// @Summary Clock in for today
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AttendanceRecord
// @Failure 409 {object} errors.ErrorResponse
// @Router /attendance/clock-in [post]
func (h *AttendanceHandler) ClockIn(c echo.Context) error {
	sess := CurrentSession(c)
	rec, err := h.attendance.ClockIn(c.Request().Context(), sess.User.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

// ClockOut godoc
// @Summary Clock out for today
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ClockOutRequest false "Confirmations"
// @Success 200 {object} model.AttendanceRecord
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /attendance/clock-out [post]
func (h *AttendanceHandler) ClockOut(c echo.Context) error {
	var req ClockOutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sess := CurrentSession(c)
	rec, err := h.attendance.ClockOut(c.Request().Context(), sess.User.ID, sess.User.Role, service.ClockOutOptions{
		ForceEndOpenBreak:      req.ForceEndOpenBreak,
		AcceptEarlyLeave:       req.AcceptEarlyLeave,
		AcknowledgeUncommented: req.AcknowledgeUncommented,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

// StartBreak godoc
// @Summary Start the daily break
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AttendanceRecord
// @Failure 409 {object} errors.ErrorResponse
// @Router /attendance/break/start [post]
func (h *AttendanceHandler) StartBreak(c echo.Context) error {
	sess := CurrentSession(c)
	rec, err := h.attendance.StartBreak(c.Request().Context(), sess.User.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

// EndBreak godoc
// @Summary End the current break
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.BreakResult
// @Failure 409 {object} errors.ErrorResponse
// @Router /attendance/break/end [post]
func (h *AttendanceHandler) EndBreak(c echo.Context) error {
	sess := CurrentSession(c)
	result, err := h.attendance.EndBreak(c.Request().Context(), sess.User.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// Today godoc
// @Summary Return today's attendance record
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AttendanceRecord
// @Failure 404 {object} errors.ErrorResponse
// @Router /attendance/today [get]
func (h *AttendanceHandler) Today(c echo.Context) error {
	sess := CurrentSession(c)
	rec, err := h.attendance.Today(c.Request().Context(), sess.User.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}
