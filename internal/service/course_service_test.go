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

type mockCourseRepo struct {
	courses    map[string]*models.Course
	teacherIDs []string
	deletedID  string
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var out []models.Course
	for _, c := range m.courses {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = "c1"
	if m.courses == nil {
		m.courses = make(map[string]*models.Course)
	}
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	m.deletedID = id
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) TeacherIDs(ctx context.Context, courseID string) ([]string, error) {
	return m.teacherIDs, nil
}

type mockSalaryRepo struct {
	recomputed []string
}

func (m *mockSalaryRepo) RecomputeSalary(ctx context.Context, employeeID string) (int64, error) {
	m.recomputed = append(m.recomputed, employeeID)
	return 0, nil
}

func newCourseService(repo *mockCourseRepo, salaryRepo *mockSalaryRepo) *CourseService {
	return NewCourseService(repo, NewSalaryService(salaryRepo, zap.NewNop()), NewValidator(), zap.NewNop())
}

func TestCourseServiceCreate(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := newCourseService(repo, &mockSalaryRepo{})

	course, err := svc.Create(context.Background(), CourseRequest{Name: " Backend ", Duration: 6, Price: 700000})
	require.NoError(t, err)
	assert.Equal(t, "Backend", course.Name)
	assert.Equal(t, int64(700000), course.Price)
}

func TestCourseServiceCreateNegativePrice(t *testing.T) {
	svc := newCourseService(&mockCourseRepo{}, &mockSalaryRepo{})

	_, err := svc.Create(context.Background(), CourseRequest{Name: "Backend", Price: -1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceUpdateRecomputesOnPriceChange(t *testing.T) {
	repo := &mockCourseRepo{
		courses:    map[string]*models.Course{"c1": {ID: "c1", Name: "Backend", Price: 700000}},
		teacherIDs: []string{"e1", "e2"},
	}
	salaryRepo := &mockSalaryRepo{}
	svc := newCourseService(repo, salaryRepo)

	_, err := svc.Update(context.Background(), "c1", CourseRequest{Name: "Backend", Price: 800000})
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, salaryRepo.recomputed)
}

func TestCourseServiceUpdateSkipsRecomputeWhenPriceUnchanged(t *testing.T) {
	repo := &mockCourseRepo{
		courses:    map[string]*models.Course{"c1": {ID: "c1", Name: "Backend", Price: 700000}},
		teacherIDs: []string{"e1"},
	}
	salaryRepo := &mockSalaryRepo{}
	svc := newCourseService(repo, salaryRepo)

	_, err := svc.Update(context.Background(), "c1", CourseRequest{Name: "Backend kechki", Price: 700000})
	require.NoError(t, err)
	assert.Empty(t, salaryRepo.recomputed)
}

func TestCourseServiceDeleteRecomputesAffectedTeachers(t *testing.T) {
	repo := &mockCourseRepo{
		courses:    map[string]*models.Course{"c1": {ID: "c1", Name: "Backend", Price: 700000}},
		teacherIDs: []string{"e1"},
	}
	salaryRepo := &mockSalaryRepo{}
	svc := newCourseService(repo, salaryRepo)

	require.NoError(t, svc.Delete(context.Background(), "c1"))
	assert.Equal(t, "c1", repo.deletedID)
	assert.Equal(t, []string{"e1"}, salaryRepo.recomputed)
}
