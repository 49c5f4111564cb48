package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edu-markaz/center-api/internal/models"
	"github.com/edu-markaz/center-api/internal/repository"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
	"github.com/edu-markaz/center-api/pkg/phone"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByPhone(ctx context.Context, phoneNumber, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// CreateUserRequest represents payload for creating user accounts. The phone
// number is normalized before format and uniqueness checks.
type CreateUserRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
	FirstName   string `json:"first_name" validate:"omitempty,max=30"`
	LastName    string `json:"last_name" validate:"omitempty,max=30"`
	Email       string `json:"email" validate:"omitempty,email"`
	IsActive    *bool  `json:"is_active"`
	IsStaff     *bool  `json:"is_staff"`
	IsSuperuser *bool  `json:"is_superuser"`
}

// UpdateUserRequest represents payload for mutating user accounts.
type UpdateUserRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	FirstName   string `json:"first_name" validate:"omitempty,max=30"`
	LastName    string `json:"last_name" validate:"omitempty,max=30"`
	Email       string `json:"email" validate:"omitempty,email"`
	IsActive    *bool  `json:"is_active"`
	IsStaff     *bool  `json:"is_staff"`
	IsSuperuser *bool  `json:"is_superuser"`
}

// UserService is the account factory: every identity in the system is
// created through it.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns user accounts plus pagination data.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create registers a regular account.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	user, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "phone number already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	return user, nil
}

// CreateSuperuser registers a privileged account. Staff and superuser flags
// default to true; explicitly requesting either as false is rejected.
func (s *UserService) CreateSuperuser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if req.IsStaff != nil && !*req.IsStaff {
		return nil, appErrors.Clone(appErrors.ErrValidation, "superuser must have is_staff=true")
	}
	if req.IsSuperuser != nil && !*req.IsSuperuser {
		return nil, appErrors.Clone(appErrors.ErrValidation, "superuser must have is_superuser=true")
	}
	enabled := true
	req.IsStaff = &enabled
	req.IsSuperuser = &enabled
	return s.Create(ctx, req)
}

// Update mutates an existing account in place, field by field.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyUpdate(ctx, user, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	return nil
}

// Prepare validates and assembles an unsaved account record. The nested
// employee/student creation flows persist the result inside their own
// transactions.
func (s *UserService) Prepare(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	normalized := phone.Normalize(req.PhoneNumber)
	if normalized == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "phone_number is required")
	}
	if !phone.Valid(normalized) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "phone_number must be in the +998XXXXXXXXX format")
	}
	if err := s.ensureUniquePhone(ctx, normalized, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		PhoneNumber:  normalized,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.TrimSpace(req.Email),
		IsActive:     true,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsStaff != nil {
		user.IsStaff = *req.IsStaff
	}
	if req.IsSuperuser != nil {
		user.IsSuperuser = *req.IsSuperuser
	}
	return user, nil
}

// ApplyUpdate validates a nested user payload and mutates the loaded
// account in place without persisting it. Callers save the record inside
// their own transaction.
func (s *UserService) ApplyUpdate(ctx context.Context, user *models.User, req UpdateUserRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	normalized := phone.Normalize(req.PhoneNumber)
	if !phone.Valid(normalized) {
		return appErrors.Clone(appErrors.ErrValidation, "phone_number must be in the +998XXXXXXXXX format")
	}
	if normalized != user.PhoneNumber {
		if err := s.ensureUniquePhone(ctx, normalized, user.ID); err != nil {
			return err
		}
	}

	user.PhoneNumber = normalized
	applyUserFields(user, req)
	return nil
}

func (s *UserService) ensureUniquePhone(ctx context.Context, phoneNumber, excludeID string) error {
	exists, err := s.repo.ExistsByPhone(ctx, phoneNumber, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check phone uniqueness")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "phone_number already registered")
	}
	return nil
}

func applyUserFields(user *models.User, req UpdateUserRequest) {
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	user.Email = strings.TrimSpace(req.Email)
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsStaff != nil {
		user.IsStaff = *req.IsStaff
	}
	if req.IsSuperuser != nil {
		user.IsSuperuser = *req.IsSuperuser
	}
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
