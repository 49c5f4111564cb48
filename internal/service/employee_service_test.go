package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edu-markaz/center-api/internal/models"
	"github.com/edu-markaz/center-api/internal/repository"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

type mockEmployeeRepo struct {
	details   map[string]*models.EmployeeDetail
	created   *models.Employee
	deleteErr error
	deletedID string
}

func (m *mockEmployeeRepo) List(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetail, int, error) {
	var out []models.EmployeeDetail
	for _, d := range m.details {
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (m *mockEmployeeRepo) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	if d, ok := m.details[id]; ok {
		return &d.Employee, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEmployeeRepo) GetDetail(ctx context.Context, id string) (*models.EmployeeDetail, error) {
	if d, ok := m.details[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEmployeeRepo) CreateWithUser(ctx context.Context, user *models.User, employee *models.Employee) error {
	employee.ID = "e1"
	employee.UserID = user.ID
	m.created = employee
	return nil
}

func (m *mockEmployeeRepo) UpdateWithUser(ctx context.Context, user *models.User, employee *models.Employee) error {
	return nil
}

func (m *mockEmployeeRepo) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedID = id
	return nil
}

func newEmployeeService(repo *mockEmployeeRepo) *EmployeeService {
	users := NewUserService(&mockUserRepo{}, NewValidator(), zap.NewNop())
	return NewEmployeeService(repo, users, NewValidator(), zap.NewNop())
}

func TestEmployeeServiceCreate(t *testing.T) {
	repo := &mockEmployeeRepo{}
	svc := newEmployeeService(repo)

	detail, err := svc.Create(context.Background(), CreateEmployeeRequest{
		User:       CreateUserRequest{PhoneNumber: "+998 90 123 45 67", Password: "secret1", FirstName: "Olim"},
		Specialty:  " Matematika ",
		Percentage: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, "Matematika", detail.Specialty)
	assert.Equal(t, 40, detail.Percentage)
	assert.Equal(t, "+998901234567", detail.User.PhoneNumber)
	require.NotNil(t, repo.created)
	assert.Zero(t, repo.created.Salary)
}

func TestEmployeeServiceCreatePercentageOutOfRange(t *testing.T) {
	svc := newEmployeeService(&mockEmployeeRepo{})

	_, err := svc.Create(context.Background(), CreateEmployeeRequest{
		User:       CreateUserRequest{PhoneNumber: "+998901234567", Password: "secret1"},
		Specialty:  "Fizika",
		Percentage: 120,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEmployeeServiceDeleteProtected(t *testing.T) {
	repo := &mockEmployeeRepo{
		details:   map[string]*models.EmployeeDetail{"e1": {Employee: models.Employee{ID: "e1"}}},
		deleteErr: repository.ErrTeacherAssigned,
	}
	svc := newEmployeeService(repo)

	err := svc.Delete(context.Background(), "e1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrProtected.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrProtected.Status, appErr.Status)
}

func TestEmployeeServiceDelete(t *testing.T) {
	repo := &mockEmployeeRepo{details: map[string]*models.EmployeeDetail{"e1": {Employee: models.Employee{ID: "e1"}}}}
	svc := newEmployeeService(repo)

	require.NoError(t, svc.Delete(context.Background(), "e1"))
	assert.Equal(t, "e1", repo.deletedID)
}

func TestEmployeeServiceGetNotFound(t *testing.T) {
	svc := newEmployeeService(&mockEmployeeRepo{})

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
