package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"careattend/internal/auth"
	"careattend/internal/config"
	"careattend/internal/model"
	"careattend/internal/session"
	"careattend/internal/store"
)

type stubUserRepo struct {
	user *model.User
}

func (s *stubUserRepo) Create(context.Context, *model.User) error { return nil }
func (s *stubUserRepo) Update(context.Context, *model.User) error { return nil }

func (s *stubUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) ListActive(context.Context) ([]model.User, error) { return nil, nil }
func (s *stubUserRepo) List(context.Context) ([]model.User, error)       { return nil, nil }

type capturedEvents struct {
	types []string
}

func (e *capturedEvents) Event(eventType string, _ map[string]string) {
	e.types = append(e.types, eventType)
}

func newAuthFixture(t *testing.T) (*AuthHandler, *session.Manager, *capturedEvents, *session.Session) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	assert.NoError(t, err)
	repo := &stubUserRepo{user: &model.User{
		ID:           "user1",
		Name:         "Commuting Client",
		PasswordHash: string(hash),
		Role:         model.RoleUser,
	}}

	events := &capturedEvents{}
	kv := store.New(store.NewMemoryBackend(), "", nil, nil)
	sessions := session.NewManager(kv, repo, events, config.DefaultSecurity(), nil)

	sess, err := sessions.Login(context.Background(), "user1", "pw")
	assert.NoError(t, err)

	h := NewAuthHandler(sessions, auth.NewJWTService("test-secret"))
	return h, sessions, events, sess
}

func sessionContext(sess *session.Session) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(SessionContextKey, sess)
	return c, rec
}

func TestSessionProbeRestores(t *testing.T) {
	h, _, events, sess := newAuthFixture(t)
	c, rec := sessionContext(sess)

	assert.NoError(t, h.Session(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), sess.Token)
	assert.Contains(t, events.types, "SESSION_RESTORED")
}

func TestSessionProbeRejectsDeadSession(t *testing.T) {
	h, sessions, _, sess := newAuthFixture(t)
	sessions.Logout(context.Background(), sess.Token)

	c, _ := sessionContext(sess)
	err := h.Session(c)

	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
