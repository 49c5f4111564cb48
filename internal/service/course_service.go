package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edu-markaz/center-api/internal/models"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	TeacherIDs(ctx context.Context, courseID string) ([]string, error)
}

// CourseRequest represents payload for creating and updating courses.
type CourseRequest struct {
	Name     string `json:"name" validate:"required,max=155"`
	Duration int    `json:"duration" validate:"gte=0"`
	Price    int64  `json:"price" validate:"gte=0"`
	Info     string `json:"info"`
}

// CourseService orchestrates the course catalog. Price changes feed teacher
// salaries, so mutations re-derive the salaries of affected teachers.
type CourseService struct {
	repo      courseRepository
	salaries  *SalaryService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, salaries *SalaryService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, salaries: salaries, validator: validate, logger: logger}
}

// List returns courses plus pagination data.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a catalog entry.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		Name:     strings.TrimSpace(req.Name),
		Duration: req.Duration,
		Price:    req.Price,
		Info:     req.Info,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update modifies a catalog entry and re-derives salaries for every teacher
// whose groups use the course.
func (s *CourseService) Update(ctx context.Context, id string, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	priceChanged := course.Price != req.Price
	course.Name = strings.TrimSpace(req.Name)
	course.Duration = req.Duration
	course.Price = req.Price
	course.Info = req.Info

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	if priceChanged {
		s.recomputeTeachers(ctx, id)
	}
	return course, nil
}

// Delete removes a catalog entry; dependent groups cascade, so affected
// teacher salaries are re-derived afterwards.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	teacherIDs, err := s.repo.TeacherIDs(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course teachers")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.salaries.RecomputeAll(ctx, teacherIDs)
	return nil
}

func (s *CourseService) recomputeTeachers(ctx context.Context, courseID string) {
	teacherIDs, err := s.repo.TeacherIDs(ctx, courseID)
	if err != nil {
		s.logger.Warn("failed to list course teachers", zap.String("course_id", courseID), zap.Error(err))
		return
	}
	s.salaries.RecomputeAll(ctx, teacherIDs)
}
