package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"careattend/internal/auth"
	"careattend/internal/config"
	"careattend/internal/handler"
	"careattend/internal/session"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	sessions *session.Manager,
	authHandler *handler.AuthHandler,
	attendanceHandler *handler.AttendanceHandler,
	reportHandler *handler.ReportHandler,
	handoverHandler *handler.HandoverHandler,
	userHandler *handler.UserHandler,
	adminHandler *handler.AdminHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/login", authHandler.Login)

	// Secured routes (require JWT authentication and a live session)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
	}), sessionMiddleware(sessions))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/session", authHandler.Session)

	// Attendance routes
	secured.POST("/attendance/clock-in", attendanceHandler.ClockIn)
	secured.POST("/attendance/clock-out", attendanceHandler.ClockOut)
	secured.POST("/attendance/break/start", attendanceHandler.StartBreak)
	secured.POST("/attendance/break/end", attendanceHandler.EndBreak)
	secured.GET("/attendance/today", attendanceHandler.Today)

	// Report routes
	secured.POST("/reports", reportHandler.Submit)
	secured.GET("/reports/me", reportHandler.GetMine)
	secured.GET("/reports/uncommented", reportHandler.Uncommented)
	secured.GET("/reports/comment-seen", reportHandler.CommentSeen)
	secured.POST("/reports/comment-seen", reportHandler.MarkCommentSeen)
	secured.GET("/reports/:user_id", reportHandler.Get)
	secured.GET("/reports/:user_id/comment", reportHandler.GetComment)
	secured.PUT("/reports/:user_id/comment", reportHandler.SaveComment)
	secured.POST("/reports/:user_id/comment/lock", reportHandler.AcquireLock)
	secured.DELETE("/reports/:user_id/comment/lock", reportHandler.ReleaseLock)

	// Handover routes
	secured.GET("/handover", handoverHandler.Get)
	secured.PUT("/handover", handoverHandler.Update)

	// User administration routes
	secured.POST("/users", userHandler.Register)
	secured.GET("/users", userHandler.List)
	secured.POST("/users/:user_id/retire", userHandler.Retire)

	// Admin routes
	secured.GET("/admin/security-log", adminHandler.SecurityLog)
	secured.POST("/admin/security-log/cleanup", adminHandler.CleanupSecurityLog)
}

// sessionMiddleware resolves the session referenced by the JWT and refreshes
// its activity window. Every authenticated request counts as user activity.
func sessionMiddleware(sessions *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok || claims.ID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sess, err := sessions.Validate(c.Request().Context(), claims.ID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			c.Set(handler.SessionContextKey, sess)
			return next(c)
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
