package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"careattend/internal/service"
	"careattend/internal/session"
)

// UserHandler handles identity administration endpoints.
type UserHandler struct {
	users    service.UserService
	sessions *session.Manager
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users service.UserService, sessions *session.Manager) *UserHandler {
	return &UserHandler{users: users, sessions: sessions}
}

// Register godoc
// @Summary Register a new account
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.RegisterUserInput true "Account"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) Register(c echo.Context) error {
	sess := CurrentSession(c)
	if err := h.sessions.RequirePermission(sess, "manage_users"); err != nil {
		return httpError(err)
	}

	var input service.RegisterUserInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.Register(c.Request().Context(), input)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Retire godoc
// @Summary Retire an account
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "User id"
// @Success 200 {object} model.User
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{user_id}/retire [post]
func (h *UserHandler) Retire(c echo.Context) error {
	sess := CurrentSession(c)
	if err := h.sessions.RequirePermission(sess, "manage_users"); err != nil {
		return httpError(err)
	}

	user, err := h.users.Retire(c.Request().Context(), sess.User.ID, c.Param("user_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// List godoc
// @Summary List accounts
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param include_retired query bool false "Include retired accounts"
// @Success 200 {array} model.User
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) List(c echo.Context) error {
	sess := CurrentSession(c)
	if err := h.sessions.RequirePermission(sess, "manage_users"); err != nil {
		return httpError(err)
	}

	users, err := h.users.List(c.Request().Context(), c.QueryParam("include_retired") == "true")
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, users)
}
