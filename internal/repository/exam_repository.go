package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edu-markaz/center-api/internal/models"
)

// ExamRepository manages exams and their examiner sets.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

const examColumns = "id, group_id, min_score, max_score, date, room_id"

// List returns exam rows for an optional group along with total count.
func (r *ExamRepository) List(ctx context.Context, groupID string, page, pageSize int) ([]models.Exam, int, error) {
	base := "FROM exams WHERE 1=1"
	var args []interface{}
	if groupID != "" {
		base += " AND group_id = $1"
		args = append(args, groupID)
	}
	limit, offset := pageWindow(page, pageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY date DESC LIMIT %d OFFSET %d", examColumns, base, limit, offset)
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exams: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count exams: %w", err)
	}

	return exams, total, nil
}

// FindByID fetches an exam row.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams WHERE id = $1", examColumns)
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// Examiners returns the employees assigned to grade an exam.
func (r *ExamRepository) Examiners(ctx context.Context, examID string) ([]models.EmployeeDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees e JOIN users u ON u.id = e.user_id
		JOIN exam_teachers et ON et.employee_id = e.id WHERE et.exam_id = $1 ORDER BY u.first_name`, employeeDetailColumns)
	var examiners []models.EmployeeDetail
	if err := r.db.SelectContext(ctx, &examiners, query, examID); err != nil {
		return nil, fmt.Errorf("list examiners: %w", err)
	}
	return examiners, nil
}

// Create inserts an exam with its examiner set in one transaction.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam, examinerIDs []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin exam transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	const query = `INSERT INTO exams (id, group_id, min_score, max_score, date, room_id)
		VALUES (:id, :group_id, :min_score, :max_score, :date, :room_id)`
	if _, err = tx.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}

	if err = replaceExaminers(ctx, tx, exam.ID, examinerIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// Update rewrites an exam and its examiner set in one transaction.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam, examinerIDs []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin exam transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE exams SET group_id = :group_id, min_score = :min_score, max_score = :max_score, date = :date, room_id = :room_id WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("update exam: %w", err)
	}

	if examinerIDs != nil {
		if err = replaceExaminers(ctx, tx, exam.ID, examinerIDs); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes an exam and its examiner links.
func (r *ExamRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin exam delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM exam_teachers WHERE exam_id = $1", id); err != nil {
		return fmt.Errorf("clear examiners: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM exams WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	return tx.Commit()
}

func replaceExaminers(ctx context.Context, tx *sqlx.Tx, examID string, examinerIDs []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM exam_teachers WHERE exam_id = $1", examID); err != nil {
		return fmt.Errorf("clear examiners: %w", err)
	}
	for _, employeeID := range examinerIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO exam_teachers (exam_id, employee_id) VALUES ($1, $2)", examID, employeeID); err != nil {
			return fmt.Errorf("attach examiner: %w", err)
		}
	}
	return nil
}
