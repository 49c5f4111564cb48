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

type notificationRepository interface {
	List(ctx context.Context, studentUserID string, page, pageSize int) ([]models.Notification, int, error)
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	Create(ctx context.Context, notification *models.Notification) error
	Update(ctx context.Context, notification *models.Notification) error
	Delete(ctx context.Context, id string) error
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateNotificationRequest represents payload for sending a notification.
type CreateNotificationRequest struct {
	CreatorID *string `json:"creator_id" validate:"omitempty,uuid4"`
	StudentID string  `json:"student_id" validate:"required,uuid4"`
	Message   string  `json:"message" validate:"required"`
}

// UpdateNotificationRequest rewrites the message text only.
type UpdateNotificationRequest struct {
	Message string `json:"message" validate:"required"`
}

// NotificationService manages messages sent to student accounts.
type NotificationService struct {
	repo      notificationRepository
	users     userReader
	employees employeeDetailReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationRepository, users userReader, employees employeeDetailReader, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, users: users, employees: employees, validator: validate, logger: logger}
}

// List returns notification rows, flat, with pagination data.
func (s *NotificationService) List(ctx context.Context, studentUserID string, page, pageSize int) ([]models.Notification, *models.Pagination, error) {
	notifications, total, err := s.repo.List(ctx, studentUserID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, paginationFor(page, pageSize, total), nil
}

// Get returns the nested shape of a notification.
func (s *NotificationService) Get(ctx context.Context, id string) (*models.NotificationDetail, error) {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	return s.detail(ctx, notification)
}

// Create sends a notification to a student account.
func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (*models.NotificationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}
	notification := &models.Notification{
		CreatorID: req.CreatorID,
		StudentID: req.StudentID,
		Message:   strings.TrimSpace(req.Message),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	return s.detail(ctx, notification)
}

// Update rewrites the message text.
func (s *NotificationService) Update(ctx context.Context, id string, req UpdateNotificationRequest) (*models.NotificationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}

	notification.Message = strings.TrimSpace(req.Message)
	if err := s.repo.Update(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notification")
	}
	return s.detail(ctx, notification)
}

// Delete removes a notification.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	return nil
}

func (s *NotificationService) detail(ctx context.Context, notification *models.Notification) (*models.NotificationDetail, error) {
	student, err := s.users.FindByID(ctx, notification.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification student")
	}
	detail := &models.NotificationDetail{Notification: *notification, Student: *student}

	if notification.CreatorID != nil {
		creator, err := s.employees.GetDetail(ctx, *notification.CreatorID)
		if err != nil {
			if err != sql.ErrNoRows {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification creator")
			}
		} else {
			detail.Creator = creator
		}
	}
	return detail, nil
}
