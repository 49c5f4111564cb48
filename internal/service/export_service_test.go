package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edu-markaz/center-api/internal/models"
	"github.com/edu-markaz/center-api/pkg/config"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

type mockPaymentExportRepo struct {
	payments  []models.PaymentDetail
	lastLimit int
}

func (m *mockPaymentExportRepo) ListForExport(ctx context.Context, from, to *time.Time, limit int) ([]models.PaymentDetail, error) {
	m.lastLimit = limit
	return m.payments, nil
}

func TestExportServicePaymentsLedgerCSV(t *testing.T) {
	date := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockPaymentExportRepo{payments: []models.PaymentDetail{
		{
			Payment: models.Payment{ID: "p1", Amount: 500000, PaymentDate: &date},
			User:    models.User{FirstName: "Aziz", LastName: "Karimov", PhoneNumber: "+998901234567"},
		},
	}}
	svc := NewExportService(repo, config.ExportsConfig{Enabled: true, MaxRows: 1000}, zap.NewNop())

	res, err := svc.PaymentsLedger(context.Background(), FormatCSV, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", res.ContentType)
	assert.True(t, strings.HasPrefix(res.FileName, "payments-"))
	assert.True(t, strings.HasSuffix(res.FileName, ".csv"))
	assert.Equal(t, 1000, repo.lastLimit)

	lines := strings.Split(strings.TrimSpace(string(res.Content)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Student,Phone,Amount", lines[0])
	assert.Equal(t, "2024-09-01,Aziz Karimov,+998901234567,500000", lines[1])
}

func TestExportServicePaymentsLedgerPDF(t *testing.T) {
	repo := &mockPaymentExportRepo{}
	svc := NewExportService(repo, config.ExportsConfig{Enabled: true, MaxRows: 1000}, zap.NewNop())

	res, err := svc.PaymentsLedger(context.Background(), FormatPDF, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.NotEmpty(t, res.Content)
}

func TestExportServicePaymentsLedgerDisabled(t *testing.T) {
	svc := NewExportService(&mockPaymentExportRepo{}, config.ExportsConfig{}, zap.NewNop())

	_, err := svc.PaymentsLedger(context.Background(), FormatCSV, nil, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServicePaymentsLedgerUnknownFormat(t *testing.T) {
	svc := NewExportService(&mockPaymentExportRepo{}, config.ExportsConfig{Enabled: true}, zap.NewNop())

	_, err := svc.PaymentsLedger(context.Background(), ExportFormat("xlsx"), nil, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
