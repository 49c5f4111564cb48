package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edu-markaz/center-api/internal/models"
	"github.com/edu-markaz/center-api/internal/repository"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	taken     map[string]bool
	created   *models.User
	updated   *models.User
	deletedID string
	existsErr error
	createErr error
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ExistsByPhone(ctx context.Context, phoneNumber, excludeID string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.taken[phoneNumber], nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.updated = user
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.deletedID = id
	return nil
}

func TestUserServiceCreateNormalizesPhone(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, NewValidator(), zap.NewNop())

	user, err := svc.Create(context.Background(), CreateUserRequest{
		PhoneNumber: "+998 90 123 45 67",
		Password:    "secret1",
		FirstName:   " Aziz ",
	})
	require.NoError(t, err)
	assert.Equal(t, "+998901234567", user.PhoneNumber)
	assert.Equal(t, "Aziz", user.FirstName)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)
	assert.False(t, user.IsSuperuser)
	require.NotNil(t, repo.created)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created.PasswordHash), []byte("secret1")))
}

func TestUserServiceCreateInvalidPhone(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{PhoneNumber: "12345", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateDuplicatePhone(t *testing.T) {
	repo := &mockUserRepo{taken: map[string]bool{"+998901234567": true}}
	svc := NewUserService(repo, NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{PhoneNumber: "+998901234567", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateConcurrentDuplicatePhone(t *testing.T) {
	repo := &mockUserRepo{createErr: repository.ErrDuplicate}
	svc := NewUserService(repo, NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{PhoneNumber: "+998901234567", Password: "secret1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrConflict.Status, appErr.Status)
}

func TestUserServiceCreateSuperuserForcesFlags(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, NewValidator(), zap.NewNop())

	user, err := svc.CreateSuperuser(context.Background(), CreateUserRequest{PhoneNumber: "+998901234567", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsSuperuser)
}

func TestUserServiceCreateSuperuserRejectsExplicitFalse(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, NewValidator(), zap.NewNop())
	disabled := false

	_, err := svc.CreateSuperuser(context.Background(), CreateUserRequest{
		PhoneNumber: "+998901234567",
		Password:    "secret1",
		IsStaff:     &disabled,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateSuperuser(context.Background(), CreateUserRequest{
		PhoneNumber: "+998901234567",
		Password:    "secret1",
		IsSuperuser: &disabled,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateChecksPhoneUniqueness(t *testing.T) {
	repo := &mockUserRepo{
		users: map[string]*models.User{"u1": {ID: "u1", PhoneNumber: "+998901234567", IsActive: true}},
		taken: map[string]bool{"+998907654321": true},
	}
	svc := NewUserService(repo, NewValidator(), zap.NewNop())

	_, err := svc.Update(context.Background(), "u1", UpdateUserRequest{PhoneNumber: "+998907654321"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	updated, err := svc.Update(context.Background(), "u1", UpdateUserRequest{PhoneNumber: "+998 90 123 45 67", FirstName: "Bek"})
	require.NoError(t, err)
	assert.Equal(t, "+998901234567", updated.PhoneNumber)
	assert.Equal(t, "Bek", updated.FirstName)
}

func TestUserServiceGetNotFound(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, NewValidator(), zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
