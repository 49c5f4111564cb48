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

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
	GetDetail(ctx context.Context, id string) (*models.PaymentDetail, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id string) error
}

// PaymentRequest represents payload for recording and adjusting payments.
// PaymentDate is optional and formatted as YYYY-MM-DD.
type PaymentRequest struct {
	UserID      string  `json:"user_id" validate:"required,uuid4"`
	Amount      int64   `json:"amount" validate:"gte=0"`
	PaymentDate *string `json:"payment_date"`
}

// PaymentService manages the payment ledger.
type PaymentService struct {
	repo      paymentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(repo paymentRepository, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, validator: validate, logger: logger}
}

// List returns ledger entries with the paying user embedded.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, *models.Pagination, error) {
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single ledger entry.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.PaymentDetail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return detail, nil
}

// Create records a payment.
func (s *PaymentService) Create(ctx context.Context, req PaymentRequest) (*models.PaymentDetail, error) {
	payment, err := s.assemble(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}
	return s.Get(ctx, payment.ID)
}

// Update adjusts a recorded payment.
func (s *PaymentService) Update(ctx context.Context, id string, req PaymentRequest) (*models.PaymentDetail, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	payment, err := s.assemble(req)
	if err != nil {
		return nil, err
	}
	payment.ID = id
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}
	return s.Get(ctx, id)
}

// Delete removes a ledger entry.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}
	return nil
}

func (s *PaymentService) assemble(req PaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	payment := &models.Payment{UserID: req.UserID, Amount: req.Amount}
	if req.PaymentDate != nil && *req.PaymentDate != "" {
		parsed, err := time.Parse(dateLayout, *req.PaymentDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "payment_date must be formatted as YYYY-MM-DD")
		}
		payment.PaymentDate = &parsed
	} else {
		now := time.Now().UTC()
		payment.PaymentDate = &now
	}
	return payment, nil
}
