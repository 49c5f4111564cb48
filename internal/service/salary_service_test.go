package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

type mockRecomputeRepo struct {
	salary int64
	err    error
	calls  int
}

func (m *mockRecomputeRepo) RecomputeSalary(ctx context.Context, employeeID string) (int64, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return m.salary, nil
}

func TestSalaryServiceRecompute(t *testing.T) {
	svc := NewSalaryService(&mockRecomputeRepo{salary: 600000}, zap.NewNop())

	salary, err := svc.Recompute(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, int64(600000), salary)
}

func TestSalaryServiceRecomputeUnknownEmployee(t *testing.T) {
	repo := &mockRecomputeRepo{err: fmt.Errorf("lock employee: %w", sql.ErrNoRows)}
	svc := NewSalaryService(repo, zap.NewNop())

	_, err := svc.Recompute(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrNotFound.Status, appErr.Status)
}

func TestSalaryServiceRecomputeAllKeepsGoing(t *testing.T) {
	repo := &mockRecomputeRepo{err: fmt.Errorf("sum group revenue: %w", sql.ErrConnDone)}
	svc := NewSalaryService(repo, zap.NewNop())

	svc.RecomputeAll(context.Background(), []string{"e1", "e2", "e3"})
	assert.Equal(t, 3, repo.calls)
}
