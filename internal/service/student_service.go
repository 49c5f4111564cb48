package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edu-markaz/center-api/internal/models"
	"github.com/edu-markaz/center-api/internal/repository"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
	"github.com/edu-markaz/center-api/pkg/phone"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	GetDetail(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByParentNumber(ctx context.Context, number, excludeID string) (bool, error)
	CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error
	UpdateWithUser(ctx context.Context, user *models.User, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest embeds the full user payload.
type CreateStudentRequest struct {
	User              CreateUserRequest `json:"user" validate:"required"`
	ParentNumber      *string           `json:"parent_number" validate:"omitempty,uzphone"`
	ExtraParentNumber *string           `json:"extra_parent_number" validate:"omitempty,uzphone"`
	Telegram          *string           `json:"telegram" validate:"omitempty,max=50"`
	Status            string            `json:"status" validate:"omitempty,oneof=active passive waiting"`
}

// UpdateStudentRequest mutates the profile and optionally the linked user.
type UpdateStudentRequest struct {
	User              *UpdateUserRequest `json:"user"`
	ParentNumber      *string            `json:"parent_number" validate:"omitempty,uzphone"`
	ExtraParentNumber *string            `json:"extra_parent_number" validate:"omitempty,uzphone"`
	Telegram          *string            `json:"telegram" validate:"omitempty,max=50"`
	Status            string             `json:"status" validate:"omitempty,oneof=active passive waiting"`
}

// StudentService orchestrates learner profiles.
type StudentService struct {
	repo      studentRepository
	users     *UserService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, users *UserService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, users: users, validator: validate, logger: logger}
}

// List returns student details plus pagination data.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a student with its nested user.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return detail, nil
}

// Create registers a new student with its nested user account in one
// transaction; no orphan account survives a failed profile insert.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	parent := normalizeParent(req.ParentNumber)
	extra := normalizeParent(req.ExtraParentNumber)
	if err := s.ensureUniqueParents(ctx, parent, extra, ""); err != nil {
		return nil, err
	}

	user, err := s.users.Prepare(ctx, req.User)
	if err != nil {
		return nil, err
	}

	student := &models.Student{
		ParentNumber:      parent,
		ExtraParentNumber: extra,
		Telegram:          req.Telegram,
		Status:            studentStatusOrDefault(req.Status),
	}

	if err := s.repo.CreateWithUser(ctx, user, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "phone number already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return &models.StudentDetail{Student: *student, User: *user}, nil
}

// Update mutates the profile and, when supplied, the linked user in place.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	parent := normalizeParent(req.ParentNumber)
	extra := normalizeParent(req.ExtraParentNumber)
	if err := s.ensureUniqueParents(ctx, parent, extra, id); err != nil {
		return nil, err
	}

	var user *models.User
	if req.User != nil {
		user = &detail.User
		if err := s.users.ApplyUpdate(ctx, user, *req.User); err != nil {
			return nil, err
		}
	}

	detail.ParentNumber = parent
	detail.ExtraParentNumber = extra
	detail.Telegram = req.Telegram
	detail.Status = studentStatusOrDefault(req.Status)

	if err := s.repo.UpdateWithUser(ctx, user, &detail.Student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return detail, nil
}

// Delete removes a student profile, keeping its user account.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

func (s *StudentService) ensureUniqueParents(ctx context.Context, parent, extra *string, excludeID string) error {
	for _, number := range []*string{parent, extra} {
		if number == nil {
			continue
		}
		exists, err := s.repo.ExistsByParentNumber(ctx, *number, excludeID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check parent number")
		}
		if exists {
			return appErrors.Clone(appErrors.ErrConflict, "parent number already registered")
		}
	}
	return nil
}

func normalizeParent(number *string) *string {
	if number == nil {
		return nil
	}
	normalized := phone.Normalize(*number)
	if normalized == "" {
		return nil
	}
	return &normalized
}

func studentStatusOrDefault(status string) models.StudentStatus {
	if status == "" {
		return models.StudentActive
	}
	return models.StudentStatus(status)
}
