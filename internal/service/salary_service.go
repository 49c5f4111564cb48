package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

type salaryRepository interface {
	RecomputeSalary(ctx context.Context, employeeID string) (int64, error)
}

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// SalaryService re-derives employee salaries from group enrollment. Group
// and roster writes run the same derivation inside their own transactions;
// this service is the explicit entry point for everything else (course
// deletions, manual reconciliation) and for tests.
type SalaryService struct {
	repo    salaryRepository
	logger  *zap.Logger
	metrics queryObserver
}

// NewSalaryService constructs a SalaryService.
func NewSalaryService(repo salaryRepository, logger *zap.Logger) *SalaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalaryService{repo: repo, logger: logger}
}

// WithMetrics attaches a recorder for derivation timings.
func (s *SalaryService) WithMetrics(metrics queryObserver) *SalaryService {
	s.metrics = metrics
	return s
}

// Recompute re-derives and stores the salary of one employee. The operation
// is idempotent: with no roster or price change, repeated calls settle on
// the same value.
func (s *SalaryService) Recompute(ctx context.Context, employeeID string) (int64, error) {
	start := time.Now()
	salary, err := s.repo.RecomputeSalary(ctx, employeeID)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("salary_recompute", time.Since(start))
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recompute salary")
	}
	s.logger.Debug("salary recomputed", zap.String("employee_id", employeeID), zap.Int64("salary", salary))
	return salary, nil
}

// RecomputeAll re-derives salaries for a set of employees, keeping going on
// individual failures.
func (s *SalaryService) RecomputeAll(ctx context.Context, employeeIDs []string) {
	for _, id := range employeeIDs {
		if _, err := s.Recompute(ctx, id); err != nil {
			s.logger.Warn("salary recompute failed", zap.String("employee_id", id), zap.Error(err))
		}
	}
}
