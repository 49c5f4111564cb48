package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edu-markaz/center-api/internal/models"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error)
	GetDetail(ctx context.Context, id string) (*models.AttendanceDetail, error)
	Create(ctx context.Context, mark *models.Attendance) error
	Update(ctx context.Context, mark *models.Attendance) error
	Delete(ctx context.Context, id string) error
}

// AttendanceRequest represents payload for attendance marks. Date is
// formatted as YYYY-MM-DD.
type AttendanceRequest struct {
	UserID    string `json:"user_id" validate:"required,uuid4"`
	Date      string `json:"date" validate:"required"`
	IsPresent bool   `json:"is_present"`
}

// AttendanceService manages daily attendance marks.
type AttendanceService struct {
	repo      attendanceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, validator: validate, logger: logger}
}

// List returns attendance marks with users embedded.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, *models.Pagination, error) {
	marks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return marks, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single attendance mark.
func (s *AttendanceService) Get(ctx context.Context, id string) (*models.AttendanceDetail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance mark not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance mark")
	}
	return detail, nil
}

// Create records an attendance mark.
func (s *AttendanceService) Create(ctx context.Context, req AttendanceRequest) (*models.AttendanceDetail, error) {
	mark, err := s.assemble(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, mark); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance mark")
	}
	return s.Get(ctx, mark.ID)
}

// Update rewrites an attendance mark.
func (s *AttendanceService) Update(ctx context.Context, id string, req AttendanceRequest) (*models.AttendanceDetail, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	mark, err := s.assemble(req)
	if err != nil {
		return nil, err
	}
	mark.ID = id
	if err := s.repo.Update(ctx, mark); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance mark")
	}
	return s.Get(ctx, id)
}

// Delete removes an attendance mark.
func (s *AttendanceService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance mark")
	}
	return nil
}

func (s *AttendanceService) assemble(req AttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be formatted as YYYY-MM-DD")
	}
	return &models.Attendance{UserID: req.UserID, Date: date, IsPresent: req.IsPresent}, nil
}
