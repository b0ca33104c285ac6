package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"careattend/internal/auth"
	"careattend/internal/session"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	sessions *session.Manager
	jwt      *auth.JWTService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(sessions *session.Manager, jwt *auth.JWTService) *AuthHandler {
	return &AuthHandler{sessions: sessions, jwt: jwt}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the access token and the session snapshot.
type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	Session     *session.Session `json:"session"`
}

// Login godoc
// @Summary Log in with username and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 423 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sess, err := h.sessions.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return httpError(err)
	}

	accessToken, err := h.jwt.GenerateAccessToken(sess.User.ID, string(sess.User.Role), sess.Token)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: accessToken,
		Session:     sess,
	})
}

// Logout godoc
// @Summary Log out the current session
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sess := CurrentSession(c)
	if sess != nil {
		h.sessions.Logout(c.Request().Context(), sess.Token)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// Session godoc
// @Summary Adopt and return the persisted session for the presented token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} session.Session
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	sess := CurrentSession(c)
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}

	// Full restore rather than an echo of the middleware's lookup: adopting
	// the session re-registers it with the expiry monitor and records the
	// restoration.
	restored, err := h.sessions.Restore(c.Request().Context(), sess.Token)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, restored)
}
