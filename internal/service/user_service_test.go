package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	apperrors "careattend/internal/errors"
	"careattend/internal/model"
)

func newTestUserService(repo *fakeUserRepo) (UserService, *recordingEvents) {
	events := &recordingEvents{}
	return NewUserService(repo, events), events
}

func TestRegisterClient(t *testing.T) {
	repo := &fakeUserRepo{}
	svc, events := newTestUserService(repo)

	user, err := svc.Register(context.Background(), RegisterUserInput{
		ID:          "user9",
		Name:        "New Client",
		Password:    "secret",
		Role:        "user",
		ServiceType: "commute",
	})
	assert.NoError(t, err)
	assert.Equal(t, "user9", user.ID)
	assert.Equal(t, model.ServiceCommute, user.ServiceType)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret")))
	assert.Equal(t, []string{"USER_REGISTERED"}, events.types)
}

func TestRegisterStaffIgnoresServiceType(t *testing.T) {
	svc, _ := newTestUserService(&fakeUserRepo{})

	user, err := svc.Register(context.Background(), RegisterUserInput{
		ID:          "staff9",
		Name:        "New Staff",
		Password:    "secret",
		Role:        "staff",
		ServiceType: "commute",
	})
	assert.NoError(t, err)
	assert.Empty(t, user.ServiceType)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestUserService(&fakeUserRepo{})
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterUserInput{ID: "x", Name: "X", Password: "pw", Role: "superuser"})
	assert.Equal(t, "INVALID_ROLE", apperrors.CodeOf(err))

	_, err = svc.Register(ctx, RegisterUserInput{ID: "x", Name: "X", Password: "abc", Role: "staff"})
	assert.Equal(t, "PASSWORD_TOO_SHORT", apperrors.CodeOf(err))

	_, err = svc.Register(ctx, RegisterUserInput{ID: "x", Name: "X", Password: "abcd", Role: "user"})
	assert.Equal(t, "INVALID_SERVICE_TYPE", apperrors.CodeOf(err))
}

func TestRegisterDuplicateID(t *testing.T) {
	repo := &fakeUserRepo{users: []model.User{{ID: "user1", Role: model.RoleUser}}}
	svc, _ := newTestUserService(repo)

	_, err := svc.Register(context.Background(), RegisterUserInput{
		ID:       "user1",
		Name:     "Imposter",
		Password: "secret",
		Role:     "staff",
	})
	assert.Equal(t, "USER_ALREADY_EXISTS", apperrors.CodeOf(err))
}

func TestRetire(t *testing.T) {
	repo := &fakeUserRepo{users: []model.User{{ID: "user1", Name: "Client", Role: model.RoleUser}}}
	svc, events := newTestUserService(repo)

	user, err := svc.Retire(context.Background(), "admin", "user1")
	assert.NoError(t, err)
	assert.True(t, user.IsRetired)
	assert.NotNil(t, user.RetiredAt)
	assert.Equal(t, "admin", user.RetiredBy)
	assert.Equal(t, []string{"USER_RETIRED"}, events.types)

	// Retired accounts drop out of the active listing but stay on record.
	active, _ := repo.ListActive(context.Background())
	assert.Empty(t, active)
	all, _ := repo.List(context.Background())
	assert.Len(t, all, 1)
}

func TestRetireSeedUserProtected(t *testing.T) {
	repo := &fakeUserRepo{users: []model.User{{ID: "admin", Role: model.RoleAdmin, IsSeed: true}}}
	svc, _ := newTestUserService(repo)

	_, err := svc.Retire(context.Background(), "admin", "admin")
	assert.Equal(t, "SEED_USER_PROTECTED", apperrors.CodeOf(err))
}

func TestRetireTwiceRejected(t *testing.T) {
	repo := &fakeUserRepo{users: []model.User{{ID: "user1", Role: model.RoleUser, IsRetired: true}}}
	svc, _ := newTestUserService(repo)

	_, err := svc.Retire(context.Background(), "admin", "user1")
	assert.Equal(t, "ALREADY_RETIRED", apperrors.CodeOf(err))
}

func TestRetireUnknownUser(t *testing.T) {
	svc, _ := newTestUserService(&fakeUserRepo{})

	_, err := svc.Retire(context.Background(), "admin", "ghost")
	assert.Equal(t, "USER_NOT_FOUND", apperrors.CodeOf(err))
}
