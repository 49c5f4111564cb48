package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edu-markaz/center-api/internal/models"
)

// PaymentRepository manages the payment ledger.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentDetailColumns = `p.id, p.user_id, p.amount, p.payment_date,
	u.id AS "user.id", u.phone_number AS "user.phone_number", u.first_name AS "user.first_name", u.last_name AS "user.last_name",
	u.email AS "user.email", u.is_active AS "user.is_active", u.is_staff AS "user.is_staff", u.is_superuser AS "user.is_superuser", u.date_joined AS "user.date_joined"`

// List returns payment details matching filters along with total count.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	base := "FROM payments p JOIN users u ON u.id = p.user_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("p.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("p.payment_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("p.payment_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	column := sortColumn(filter.SortBy, "payment_date", map[string]string{
		"amount":       "p.amount",
		"payment_date": "p.payment_date",
	})
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", paymentDetailColumns, base, column, sortOrder(filter.SortOrder), limit, offset)
	var payments []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	return payments, total, nil
}

// GetDetail fetches a payment with the paying user embedded.
func (r *PaymentRepository) GetDetail(ctx context.Context, id string) (*models.PaymentDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM payments p JOIN users u ON u.id = p.user_id WHERE p.id = $1", paymentDetailColumns)
	var detail models.PaymentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a payment row.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	const query = `INSERT INTO payments (id, user_id, amount, payment_date) VALUES (:id, :user_id, :amount, :payment_date)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// Update modifies a payment row.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	const query = `UPDATE payments SET user_id = :user_id, amount = :amount, payment_date = :payment_date WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

// Delete removes a payment row.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM payments WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

// ListForExport returns ledger rows within a date window for the export
// endpoint, oldest first, capped at limit.
func (r *PaymentRepository) ListForExport(ctx context.Context, from, to *time.Time, limit int) ([]models.PaymentDetail, error) {
	base := "FROM payments p JOIN users u ON u.id = p.user_id WHERE 1=1"
	var args []interface{}
	if from != nil {
		base += fmt.Sprintf(" AND p.payment_date >= $%d", len(args)+1)
		args = append(args, *from)
	}
	if to != nil {
		base += fmt.Sprintf(" AND p.payment_date <= $%d", len(args)+1)
		args = append(args, *to)
	}
	if limit <= 0 {
		limit = 10000
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY p.payment_date ASC LIMIT %d", paymentDetailColumns, base, limit)
	var payments []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("export payments: %w", err)
	}
	return payments, nil
}
