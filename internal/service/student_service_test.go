package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edu-markaz/center-api/internal/models"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

type mockStudentRepo struct {
	details      map[string]*models.StudentDetail
	takenParents map[string]bool
	created      *models.Student
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	var out []models.StudentDetail
	for _, d := range m.details {
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if d, ok := m.details[id]; ok {
		return &d.Student, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) GetDetail(ctx context.Context, id string) (*models.StudentDetail, error) {
	if d, ok := m.details[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByParentNumber(ctx context.Context, number, excludeID string) (bool, error) {
	return m.takenParents[number], nil
}

func (m *mockStudentRepo) CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error {
	student.ID = "s1"
	student.UserID = user.ID
	m.created = student
	return nil
}

func (m *mockStudentRepo) UpdateWithUser(ctx context.Context, user *models.User, student *models.Student) error {
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	return nil
}

func newStudentService(repo *mockStudentRepo) *StudentService {
	users := NewUserService(&mockUserRepo{}, NewValidator(), zap.NewNop())
	return NewStudentService(repo, users, NewValidator(), zap.NewNop())
}

func TestStudentServiceCreateDefaultsStatus(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := newStudentService(repo)

	parent := "+998 91 765 43 21"
	detail, err := svc.Create(context.Background(), CreateStudentRequest{
		User:         CreateUserRequest{PhoneNumber: "+998901234567", Password: "secret1"},
		ParentNumber: &parent,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StudentActive, detail.Status)
	require.NotNil(t, detail.ParentNumber)
	assert.Equal(t, "+998917654321", *detail.ParentNumber)
}

func TestStudentServiceCreateInvalidParentNumber(t *testing.T) {
	svc := newStudentService(&mockStudentRepo{})

	parent := "12345"
	_, err := svc.Create(context.Background(), CreateStudentRequest{
		User:         CreateUserRequest{PhoneNumber: "+998901234567", Password: "secret1"},
		ParentNumber: &parent,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateDuplicateParentNumber(t *testing.T) {
	repo := &mockStudentRepo{takenParents: map[string]bool{"+998917654321": true}}
	svc := newStudentService(repo)

	parent := "+998917654321"
	_, err := svc.Create(context.Background(), CreateStudentRequest{
		User:         CreateUserRequest{PhoneNumber: "+998901234567", Password: "secret1"},
		ParentNumber: &parent,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateInvalidStatus(t *testing.T) {
	svc := newStudentService(&mockStudentRepo{})

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		User:   CreateUserRequest{PhoneNumber: "+998901234567", Password: "secret1"},
		Status: "expelled",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdatePreservesAccountLink(t *testing.T) {
	repo := &mockStudentRepo{details: map[string]*models.StudentDetail{
		"s1": {
			Student: models.Student{ID: "s1", UserID: "u1", Status: models.StudentActive},
			User:    models.User{ID: "u1", PhoneNumber: "+998901234567", IsActive: true},
		},
	}}
	svc := newStudentService(repo)

	detail, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{Status: "waiting"})
	require.NoError(t, err)
	assert.Equal(t, models.StudentWaiting, detail.Status)
	assert.Equal(t, "u1", detail.UserID)
}
