package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edu-markaz/center-api/internal/models"
)

const employeeDetailColumns = `e.id, e.user_id, e.salary, e.bio, e.specialty, e.experience, e.percentage,
	u.id AS "user.id", u.phone_number AS "user.phone_number", u.first_name AS "user.first_name", u.last_name AS "user.last_name",
	u.email AS "user.email", u.is_active AS "user.is_active", u.is_staff AS "user.is_staff", u.is_superuser AS "user.is_superuser", u.date_joined AS "user.date_joined"`

// EmployeeRepository manages persistence for staff/teacher profiles.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs an EmployeeRepository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// List returns employee details matching filters along with total count.
func (r *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetail, int, error) {
	base := "FROM employees e JOIN users u ON u.id = e.user_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Specialty != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(e.specialty) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Specialty)
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
		"salary":      "e.salary",
		"specialty":   "e.specialty",
		"date_joined": "u.date_joined",
	})
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", employeeDetailColumns, base, column, sortOrder(filter.SortOrder), limit, offset)
	var employees []models.EmployeeDetail
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	return employees, total, nil
}

// FindByID fetches an employee profile without the nested user.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	const query = `SELECT id, user_id, salary, bio, specialty, experience, percentage FROM employees WHERE id = $1`
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		return nil, err
	}
	return &employee, nil
}

// GetDetail fetches an employee with its nested user account.
func (r *EmployeeRepository) GetDetail(ctx context.Context, id string) (*models.EmployeeDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM employees e JOIN users u ON u.id = e.user_id WHERE e.id = $1", employeeDetailColumns)
	var detail models.EmployeeDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateWithUser inserts the nested user account and the employee profile in
// one transaction. A failing employee insert leaves no orphan user behind.
func (r *EmployeeRepository) CreateWithUser(ctx context.Context, user *models.User, employee *models.Employee) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin employee transaction: %w", err)
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
		return fmt.Errorf("create employee user: %w", err)
	}

	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	employee.UserID = user.ID
	employee.Salary = 0
	const query = `INSERT INTO employees (id, user_id, salary, bio, specialty, experience, percentage)
		VALUES (:id, :user_id, :salary, :bio, :specialty, :experience, :percentage)`
	if _, err = tx.NamedExecContext(ctx, query, employee); err != nil {
		return fmt.Errorf("create employee: %w", err)
	}

	return tx.Commit()
}

// UpdateWithUser applies nested user mutations and employee fields in one
// transaction, then recomputes the derived salary from fresh reads.
func (r *EmployeeRepository) UpdateWithUser(ctx context.Context, user *models.User, employee *models.Employee) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin employee transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if user != nil {
		if _, err = tx.NamedExecContext(ctx, updateUserQuery, user); err != nil {
			return fmt.Errorf("update employee user: %w", err)
		}
	}

	const query = `UPDATE employees SET bio = :bio, specialty = :specialty, experience = :experience, percentage = :percentage WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, query, employee); err != nil {
		return fmt.Errorf("update employee: %w", err)
	}

	if employee.Salary, err = recomputeSalaryTx(ctx, tx, employee.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// RecomputeSalary re-derives an employee's salary in its own transaction.
func (r *EmployeeRepository) RecomputeSalary(ctx context.Context, id string) (salary int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin salary transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if salary, err = recomputeSalaryTx(ctx, tx, id); err != nil {
		return 0, err
	}
	return salary, tx.Commit()
}

// TeachingGroupCount returns how many groups list the employee as teacher.
func (r *EmployeeRepository) TeachingGroupCount(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM groups WHERE teacher_id = $1", id); err != nil {
		return 0, fmt.Errorf("count teaching groups: %w", err)
	}
	return count, nil
}

// Delete removes an employee profile. Callers must reject the delete while
// the employee still teaches groups; notifications keep a nulled creator.
func (r *EmployeeRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin employee delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var teaching int
	if err = tx.GetContext(ctx, &teaching, "SELECT COUNT(*) FROM groups WHERE teacher_id = $1", id); err != nil {
		return fmt.Errorf("count teaching groups: %w", err)
	}
	if teaching > 0 {
		err = ErrTeacherAssigned
		return err
	}

	if _, err = tx.ExecContext(ctx, "UPDATE notifications SET creator_id = NULL WHERE creator_id = $1", id); err != nil {
		return fmt.Errorf("detach notifications: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM exam_teachers WHERE employee_id = $1", id); err != nil {
		return fmt.Errorf("detach exam teachers: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM employees WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}

	return tx.Commit()
}

// recomputeSalaryTx locks the employee row, sums course price times current
// active roster size over every group the employee teaches, and stores
// percentage share of that revenue. Archived rosters never count. Reading
// inside the caller's transaction guarantees the sum sees the just-written
// group state.
func recomputeSalaryTx(ctx context.Context, tx *sqlx.Tx, employeeID string) (int64, error) {
	var percentage int64
	if err := tx.GetContext(ctx, &percentage, "SELECT percentage FROM employees WHERE id = $1 FOR UPDATE", employeeID); err != nil {
		return 0, fmt.Errorf("lock employee: %w", err)
	}

	const revenueQuery = `SELECT COALESCE(SUM(c.price * (SELECT COUNT(*) FROM group_students gs WHERE gs.group_id = g.id)), 0)
		FROM groups g JOIN courses c ON c.id = g.course_id WHERE g.teacher_id = $1`
	var totalRevenue int64
	if err := tx.GetContext(ctx, &totalRevenue, revenueQuery, employeeID); err != nil {
		return 0, fmt.Errorf("sum group revenue: %w", err)
	}

	salary := totalRevenue * percentage / 100
	if _, err := tx.ExecContext(ctx, "UPDATE employees SET salary = $2 WHERE id = $1", employeeID, salary); err != nil {
		return 0, fmt.Errorf("store salary: %w", err)
	}
	return salary, nil
}
