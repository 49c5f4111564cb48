package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edu-markaz/center-api/internal/models"
	"github.com/edu-markaz/center-api/pkg/config"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
	"github.com/edu-markaz/center-api/pkg/export"
)

type paymentExportRepository interface {
	ListForExport(ctx context.Context, from, to *time.Time, limit int) ([]models.PaymentDetail, error)
}

// ExportFormat identifies a supported export encoding.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus transport metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders the payments ledger into downloadable documents.
type ExportService struct {
	payments paymentExportRepository
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	cfg      config.ExportsConfig
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(payments paymentExportRepository, cfg config.ExportsConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		payments: payments,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		cfg:      cfg,
		logger:   logger,
	}
}

// PaymentsLedger renders the ledger within an optional date window.
func (s *ExportService) PaymentsLedger(ctx context.Context, format ExportFormat, from, to *time.Time) (*ExportResult, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	payments, err := s.payments.ListForExport(ctx, from, to, s.cfg.MaxRows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments for export")
	}

	dataset := paymentsDataset(payments)
	stamp := time.Now().UTC().Format("20060102-150405")

	switch format {
	case FormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("payments-%s.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case FormatPDF:
		content, err := s.pdf.Render(dataset, "Payments Ledger")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("payments-%s.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func paymentsDataset(payments []models.PaymentDetail) export.Dataset {
	headers := []string{"Date", "Student", "Phone", "Amount"}
	rows := make([]map[string]string, 0, len(payments))
	for _, p := range payments {
		date := ""
		if p.PaymentDate != nil {
			date = p.PaymentDate.Format("2006-01-02")
		}
		rows = append(rows, map[string]string{
			"Date":    date,
			"Student": strings.TrimSpace(p.User.FirstName + " " + p.User.LastName),
			"Phone":   p.User.PhoneNumber,
			"Amount":  strconv.FormatInt(p.Amount, 10),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
