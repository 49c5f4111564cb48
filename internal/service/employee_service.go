package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edu-markaz/center-api/internal/models"
	"github.com/edu-markaz/center-api/internal/repository"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

type employeeRepository interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	GetDetail(ctx context.Context, id string) (*models.EmployeeDetail, error)
	CreateWithUser(ctx context.Context, user *models.User, employee *models.Employee) error
	UpdateWithUser(ctx context.Context, user *models.User, employee *models.Employee) error
	Delete(ctx context.Context, id string) error
}

// CreateEmployeeRequest embeds the full user payload: the account and the
// profile are created as one logical operation.
type CreateEmployeeRequest struct {
	User       CreateUserRequest `json:"user" validate:"required"`
	Bio        string            `json:"bio"`
	Specialty  string            `json:"specialty" validate:"required,max=255"`
	Experience string            `json:"experience" validate:"omitempty,max=150"`
	Percentage int               `json:"percentage" validate:"gte=0,lte=100"`
}

// UpdateEmployeeRequest mutates the profile and optionally the linked user.
type UpdateEmployeeRequest struct {
	User       *UpdateUserRequest `json:"user"`
	Bio        string             `json:"bio"`
	Specialty  string             `json:"specialty" validate:"required,max=255"`
	Experience string             `json:"experience" validate:"omitempty,max=150"`
	Percentage int                `json:"percentage" validate:"gte=0,lte=100"`
}

// EmployeeService orchestrates staff/teacher profiles. Salary never comes
// from a client: it is derived on every persist.
type EmployeeService struct {
	repo      employeeRepository
	users     *UserService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEmployeeService constructs an EmployeeService.
func NewEmployeeService(repo employeeRepository, users *UserService, validate *validator.Validate, logger *zap.Logger) *EmployeeService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{repo: repo, users: users, validator: validate, logger: logger}
}

// List returns employee details plus pagination data.
func (s *EmployeeService) List(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetail, *models.Pagination, error) {
	employees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}
	return employees, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns an employee with its nested user.
func (s *EmployeeService) Get(ctx context.Context, id string) (*models.EmployeeDetail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return detail, nil
}

// Create registers a new employee with its nested user account. Account and
// profile are written in one transaction, so a failing profile insert
// leaves no orphan account.
func (s *EmployeeService) Create(ctx context.Context, req CreateEmployeeRequest) (*models.EmployeeDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}

	user, err := s.users.Prepare(ctx, req.User)
	if err != nil {
		return nil, err
	}

	employee := &models.Employee{
		Bio:        strings.TrimSpace(req.Bio),
		Specialty:  strings.TrimSpace(req.Specialty),
		Experience: strings.TrimSpace(req.Experience),
		Percentage: req.Percentage,
	}

	if err := s.repo.CreateWithUser(ctx, user, employee); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "phone number already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create employee")
	}
	return &models.EmployeeDetail{Employee: *employee, User: *user}, nil
}

// Update mutates the profile and, when supplied, the linked user in place.
// Salary is re-derived in the same transaction so a percentage change takes
// effect immediately.
func (s *EmployeeService) Update(ctx context.Context, id string, req UpdateEmployeeRequest) (*models.EmployeeDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var user *models.User
	if req.User != nil {
		user = &detail.User
		if err := s.users.ApplyUpdate(ctx, user, *req.User); err != nil {
			return nil, err
		}
	}

	detail.Bio = strings.TrimSpace(req.Bio)
	detail.Specialty = strings.TrimSpace(req.Specialty)
	detail.Experience = strings.TrimSpace(req.Experience)
	detail.Percentage = req.Percentage

	if err := s.repo.UpdateWithUser(ctx, user, &detail.Employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update employee")
	}
	return detail, nil
}

// Delete removes an employee profile unless it still teaches groups.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTeacherAssigned) {
			return appErrors.Clone(appErrors.ErrProtected, "employee still teaches groups")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete employee")
	}
	return nil
}
