package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"careattend/internal/service"
	"careattend/internal/session"
)

// ReportHandler handles daily reports and the staff comment workflow.
type ReportHandler struct {
	reports  service.ReportService
	sessions *session.Manager
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reports service.ReportService, sessions *session.Manager) *ReportHandler {
	return &ReportHandler{reports: reports, sessions: sessions}
}

// CommentRequest carries a staff comment body.
type CommentRequest struct {
	Comment string `json:"comment"`
}

// Submit godoc
// @Summary Submit or resubmit today's daily report
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ReportInput true "Report"
// @Success 200 {object} model.DailyReport
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /reports [post]
func (h *ReportHandler) Submit(c echo.Context) error {
	sess := CurrentSession(c)
	if err := h.sessions.RequirePermission(sess, "self_report"); err != nil {
		return httpError(err)
	}

	var input service.ReportInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	report, err := h.reports.Submit(c.Request().Context(), sess.User.ID, input)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// GetMine godoc
// @Summary Return the caller's report for a date
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} model.DailyReport
// @Failure 404 {object} errors.ErrorResponse
// @Router /reports/me [get]
func (h *ReportHandler) GetMine(c echo.Context) error {
	sess := CurrentSession(c)
	report, err := h.reports.Get(c.Request().Context(), sess.User.ID, c.QueryParam("date"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// Get godoc
// @Summary Return a client's report for a date
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "Client id"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} model.DailyReport
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reports/{user_id} [get]
func (h *ReportHandler) Get(c echo.Context) error {
	sess := CurrentSession(c)
	if err := h.sessions.RequirePermission(sess, "view_reports"); err != nil {
		return httpError(err)
	}

	report, err := h.reports.Get(c.Request().Context(), c.Param("user_id"), c.QueryParam("date"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// SaveComment godoc
// @Summary Save the staff comment on a client's report
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "Client id"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param request body CommentRequest true "Comment"
// @Success 200 {object} model.StaffComment
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /reports/{user_id}/comment [put]
func (h *ReportHandler) SaveComment(c echo.Context) error {
	sess := CurrentSession(c)
	if err := h.sessions.RequirePermission(sess, "add_comments"); err != nil {
		return httpError(err)
	}

	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	comment, err := h.reports.SaveComment(c.Request().Context(),
		sess.User.ID, sess.User.Name, c.Param("user_id"), c.QueryParam("date"), req.Comment)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, comment)
}

// GetComment godoc
// @Summary Return the staff comment on a client's report
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "Client id"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} model.StaffComment
// @Failure 404 {object} errors.ErrorResponse
// @Router /reports/{user_id}/comment [get]
func (h *ReportHandler) GetComment(c echo.Context) error {
	sess := CurrentSession(c)
	userID := c.Param("user_id")
	// Clients may read the comment on their own report; anyone else needs
	// the viewing permission.
	if userID != sess.User.ID {
		if err := h.sessions.RequirePermission(sess, "view_reports"); err != nil {
			return httpError(err)
		}
	}

	comment, err := h.reports.GetComment(c.Request().Context(), userID, c.QueryParam("date"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, comment)
}

// AcquireLock godoc
// @Summary Take the editing lock on a client's comment
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "Client id"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /reports/{user_id}/comment/lock [post]
func (h *ReportHandler) AcquireLock(c echo.Context) error {
	sess := CurrentSession(c)
	if err := h.sessions.RequirePermission(sess, "add_comments"); err != nil {
		return httpError(err)
	}
	if err := h.reports.AcquireCommentLock(sess.User.ID, sess.User.Name, c.Param("user_id")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "lock acquired"})
}

// ReleaseLock godoc
// @Summary Release the editing lock on a client's comment
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "Client id"
// @Success 200 {object} map[string]string
// @Router /reports/{user_id}/comment/lock [delete]
func (h *ReportHandler) ReleaseLock(c echo.Context) error {
	sess := CurrentSession(c)
	h.reports.ReleaseCommentLock(sess.User.ID, c.Param("user_id"))
	return c.JSON(http.StatusOK, map[string]string{"message": "lock released"})
}

// Uncommented godoc
// @Summary List clients with a report but no staff comment for a date
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} map[string][]string
// @Failure 403 {object} errors.ErrorResponse
// @Router /reports/uncommented [get]
func (h *ReportHandler) Uncommented(c echo.Context) error {
	sess := CurrentSession(c)
	if err := h.sessions.RequirePermission(sess, "view_reports"); err != nil {
		return httpError(err)
	}

	names, err := h.reports.UncommentedClients(c.Request().Context(), c.QueryParam("date"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string][]string{"clients": names})
}

// CommentSeen godoc
// @Summary Report whether today's comment notice was already shown
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]bool
// @Router /reports/comment-seen [get]
func (h *ReportHandler) CommentSeen(c echo.Context) error {
	sess := CurrentSession(c)
	seen := h.reports.HasSeenCommentToday(c.Request().Context(), sess.User.ID)
	return c.JSON(http.StatusOK, map[string]bool{"seen": seen})
}

// MarkCommentSeen godoc
// @Summary Consume today's one-shot comment notice
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /reports/comment-seen [post]
func (h *ReportHandler) MarkCommentSeen(c echo.Context) error {
	sess := CurrentSession(c)
	h.reports.MarkCommentSeen(c.Request().Context(), sess.User.ID)
	return c.JSON(http.StatusOK, map[string]string{"message": "marked"})
}
