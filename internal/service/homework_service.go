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

type homeworkRepository interface {
	List(ctx context.Context, groupID string, page, pageSize int) ([]models.Homework, int, error)
	FindByID(ctx context.Context, id string) (*models.Homework, error)
	Create(ctx context.Context, homework *models.Homework) error
	Update(ctx context.Context, homework *models.Homework) error
	Delete(ctx context.Context, id string) error
}

type groupDetailReader interface {
	GetDetail(ctx context.Context, id string) (*models.GroupDetail, error)
}

type employeeDetailReader interface {
	GetDetail(ctx context.Context, id string) (*models.EmployeeDetail, error)
}

// HomeworkRequest represents payload for homework assignments.
type HomeworkRequest struct {
	GroupID   string  `json:"group_id" validate:"required,uuid4"`
	TeacherID *string `json:"teacher_id" validate:"omitempty,uuid4"`
	Work      string  `json:"work" validate:"required"`
}

// HomeworkService manages homework assignments and assembles their nested
// transfer shapes from the group and employee readers.
type HomeworkService struct {
	repo      homeworkRepository
	groups    groupDetailReader
	employees employeeDetailReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHomeworkService constructs a HomeworkService.
func NewHomeworkService(repo homeworkRepository, groups groupDetailReader, employees employeeDetailReader, validate *validator.Validate, logger *zap.Logger) *HomeworkService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HomeworkService{repo: repo, groups: groups, employees: employees, validator: validate, logger: logger}
}

// List returns homework rows, flat, with pagination data.
func (s *HomeworkService) List(ctx context.Context, groupID string, page, pageSize int) ([]models.Homework, *models.Pagination, error) {
	homeworks, total, err := s.repo.List(ctx, groupID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list homeworks")
	}
	return homeworks, paginationFor(page, pageSize, total), nil
}

// Get returns the nested shape of a homework assignment.
func (s *HomeworkService) Get(ctx context.Context, id string) (*models.HomeworkDetail, error) {
	homework, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}
	return s.detail(ctx, homework)
}

// Create hands out an assignment.
func (s *HomeworkService) Create(ctx context.Context, req HomeworkRequest) (*models.HomeworkDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid homework payload")
	}
	homework := &models.Homework{GroupID: req.GroupID, TeacherID: req.TeacherID, Work: strings.TrimSpace(req.Work)}
	if err := s.repo.Create(ctx, homework); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create homework")
	}
	return s.detail(ctx, homework)
}

// Update rewrites an assignment.
func (s *HomeworkService) Update(ctx context.Context, id string, req HomeworkRequest) (*models.HomeworkDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid homework payload")
	}
	homework, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}

	homework.GroupID = req.GroupID
	homework.TeacherID = req.TeacherID
	homework.Work = strings.TrimSpace(req.Work)
	if err := s.repo.Update(ctx, homework); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update homework")
	}
	return s.detail(ctx, homework)
}

// Delete removes an assignment.
func (s *HomeworkService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete homework")
	}
	return nil
}

func (s *HomeworkService) detail(ctx context.Context, homework *models.Homework) (*models.HomeworkDetail, error) {
	group, err := s.groups.GetDetail(ctx, homework.GroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework group")
	}
	detail := &models.HomeworkDetail{Homework: *homework, Group: *group}

	if homework.TeacherID != nil {
		teacher, err := s.employees.GetDetail(ctx, *homework.TeacherID)
		if err != nil {
			if err != sql.ErrNoRows {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework teacher")
			}
		} else {
			detail.Teacher = teacher
		}
	}
	return detail, nil
}
