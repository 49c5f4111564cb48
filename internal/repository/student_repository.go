package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edu-markaz/center-api/internal/models"
)

const studentDetailColumns = `s.id, s.user_id, s.parent_number, s.extra_parent_number, s.telegram, s.status,
	u.id AS "user.id", u.phone_number AS "user.phone_number", u.first_name AS "user.first_name", u.last_name AS "user.last_name",
	u.email AS "user.email", u.is_active AS "user.is_active", u.is_staff AS "user.is_staff", u.is_superuser AS "user.is_superuser", u.date_joined AS "user.date_joined"`

// StudentRepository manages persistence for learner profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns student details matching filters along with total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students s JOIN users u ON u.id = s.user_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.first_name) LIKE $%d OR LOWER(u.last_name) LIKE $%d OR u.phone_number LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	column := sortColumn(filter.SortBy, "date_joined", map[string]string{
		"first_name":  "u.first_name",
		"status":      "s.status",
		"date_joined": "u.date_joined",
	})
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentDetailColumns, base, column, sortOrder(filter.SortOrder), limit, offset)
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	return students, total, nil
}

// FindByID fetches a student profile without the nested user.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, user_id, parent_number, extra_parent_number, telegram, status FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// GetDetail fetches a student with its nested user account.
func (r *StudentRepository) GetDetail(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM students s JOIN users u ON u.id = s.user_id WHERE s.id = $1", studentDetailColumns)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByParentNumber checks whether a parent number is already registered
// on either parent column of another student.
func (r *StudentRepository) ExistsByParentNumber(ctx context.Context, number, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE (parent_number = $1 OR extra_parent_number = $1)"
	args := []interface{}{number}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check parent number: %w", err)
	}
	return true, nil
}

// CreateWithUser inserts the nested user account and the student profile in
// one transaction. A failing student insert leaves no orphan user behind.
func (r *StudentRepository) CreateWithUser(ctx context.Context, user *models.User, student *models.Student) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	prepareUser(user)
	if _, err = tx.NamedExecContext(ctx, insertUserQuery, user); err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create student user: %w", err)
	}

	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.UserID = user.ID
	const query = `INSERT INTO students (id, user_id, parent_number, extra_parent_number, telegram, status)
		VALUES (:id, :user_id, :parent_number, :extra_parent_number, :telegram, :status)`
	if _, err = tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	return tx.Commit()
}

// UpdateWithUser applies nested user mutations and student fields in one
// transaction.
func (r *StudentRepository) UpdateWithUser(ctx context.Context, user *models.User, student *models.Student) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if user != nil {
		if _, err = tx.NamedExecContext(ctx, updateUserQuery, user); err != nil {
			return fmt.Errorf("update student user: %w", err)
		}
	}

	const query = `UPDATE students SET parent_number = :parent_number, extra_parent_number = :extra_parent_number, telegram = :telegram, status = :status WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}

	return tx.Commit()
}

// Delete removes a student profile. The user account stays.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
