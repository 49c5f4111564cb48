package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edu-markaz/center-api/internal/models"
)

// AttendanceRepository manages attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceDetailColumns = `a.id, a.user_id, a.date, a.is_present,
	u.id AS "user.id", u.phone_number AS "user.phone_number", u.first_name AS "user.first_name", u.last_name AS "user.last_name",
	u.email AS "user.email", u.is_active AS "user.is_active", u.is_staff AS "user.is_staff", u.is_superuser AS "user.is_superuser", u.date_joined AS "user.date_joined"`

// List returns attendance details matching filters along with total count.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error) {
	base := "FROM attendances a JOIN users u ON u.id = a.user_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("a.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.IsPresent != nil {
		conditions = append(conditions, fmt.Sprintf("a.is_present = $%d", len(args)+1))
		args = append(args, *filter.IsPresent)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	column := sortColumn(filter.SortBy, "date", map[string]string{
		"date":       "a.date",
		"is_present": "a.is_present",
	})
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", attendanceDetailColumns, base, column, sortOrder(filter.SortOrder), limit, offset)
	var marks []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &marks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}

	return marks, total, nil
}

// GetDetail fetches an attendance mark with the user embedded.
func (r *AttendanceRepository) GetDetail(ctx context.Context, id string) (*models.AttendanceDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM attendances a JOIN users u ON u.id = a.user_id WHERE a.id = $1", attendanceDetailColumns)
	var detail models.AttendanceDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts an attendance mark.
func (r *AttendanceRepository) Create(ctx context.Context, mark *models.Attendance) error {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	const query = `INSERT INTO attendances (id, user_id, date, is_present) VALUES (:id, :user_id, :date, :is_present)`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// Update modifies an attendance mark.
func (r *AttendanceRepository) Update(ctx context.Context, mark *models.Attendance) error {
	const query = `UPDATE attendances SET user_id = :user_id, date = :date, is_present = :is_present WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	return nil
}

// Delete removes an attendance mark.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM attendances WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	return nil
}
