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

const groupColumns = "id, name, course_id, teacher_id, room_id, start_time, end_time, start_hour, end_hour, info, status, created_at"

// GroupRepository manages persistence for class sections and their rosters.
// Every write that can change a teacher's revenue re-derives that teacher's
// salary inside the same transaction, reading the just-written state.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns groups matching filters along with total count.
func (r *GroupRepository) List(ctx context.Context, filter models.GroupFilter) ([]models.Group, int, error) {
	base := "FROM groups WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	column := sortColumn(filter.SortBy, "created_at", map[string]string{
		"name":       "name",
		"start_time": "start_time",
		"status":     "status",
		"created_at": "created_at",
	})
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", groupColumns, base, column, sortOrder(filter.SortOrder), limit, offset)
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count groups: %w", err)
	}

	return groups, total, nil
}

// FindByID fetches a group row without nested relations.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	query := fmt.Sprintf("SELECT %s FROM groups WHERE id = $1", groupColumns)
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// GetDetail assembles the fully nested transfer shape of a group.
func (r *GroupRepository) GetDetail(ctx context.Context, id string) (*models.GroupDetail, error) {
	group, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.GroupDetail{Group: *group}

	if err := r.db.GetContext(ctx, &detail.Course, "SELECT id, name, duration, price, info FROM courses WHERE id = $1", group.CourseID); err != nil {
		return nil, fmt.Errorf("load group course: %w", err)
	}
	teacherQuery := fmt.Sprintf("SELECT %s FROM employees e JOIN users u ON u.id = e.user_id WHERE e.id = $1", employeeDetailColumns)
	if err := r.db.GetContext(ctx, &detail.Teacher, teacherQuery, group.TeacherID); err != nil {
		return nil, fmt.Errorf("load group teacher: %w", err)
	}
	if err := r.db.GetContext(ctx, &detail.Room, "SELECT id, name, capacity FROM rooms WHERE id = $1", group.RoomID); err != nil {
		return nil, fmt.Errorf("load group room: %w", err)
	}
	const daysQuery = `SELECT d.id, d.day_name FROM days d JOIN group_days gd ON gd.day_id = d.id WHERE gd.group_id = $1 ORDER BY d.day_name`
	if err := r.db.SelectContext(ctx, &detail.Days, daysQuery, id); err != nil {
		return nil, fmt.Errorf("load group days: %w", err)
	}

	rosterQuery := fmt.Sprintf(`SELECT %s FROM users u JOIN group_students gs ON gs.user_id = u.id WHERE gs.group_id = $1 ORDER BY u.first_name`, prefixedUserColumns("u"))
	if err := r.db.SelectContext(ctx, &detail.Students, rosterQuery, id); err != nil {
		return nil, fmt.Errorf("load group students: %w", err)
	}
	archiveQuery := fmt.Sprintf(`SELECT %s FROM users u JOIN group_archive_students ga ON ga.user_id = u.id WHERE ga.group_id = $1 ORDER BY u.first_name`, prefixedUserColumns("u"))
	if err := r.db.SelectContext(ctx, &detail.ArchiveStudents, archiveQuery, id); err != nil {
		return nil, fmt.Errorf("load archived students: %w", err)
	}

	return detail, nil
}

// Create inserts a group plus its weekday set and re-derives the teacher's
// salary, all in one transaction.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group, dayIDs []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin group transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO groups (id, name, course_id, teacher_id, room_id, start_time, end_time, start_hour, end_hour, info, status, created_at)
		VALUES (:id, :name, :course_id, :teacher_id, :room_id, :start_time, :end_time, :start_hour, :end_hour, :info, :status, :created_at)`
	if _, err = tx.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}

	if err = replaceGroupDays(ctx, tx, group.ID, dayIDs); err != nil {
		return err
	}
	if _, err = recomputeSalaryTx(ctx, tx, group.TeacherID); err != nil {
		return err
	}

	return tx.Commit()
}

// Update rewrites a group plus its weekday set and re-derives salaries for
// the current teacher and, when reassigned, the previous one.
func (r *GroupRepository) Update(ctx context.Context, group *models.Group, dayIDs []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin group transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var prevTeacherID string
	if err = tx.GetContext(ctx, &prevTeacherID, "SELECT teacher_id FROM groups WHERE id = $1 FOR UPDATE", group.ID); err != nil {
		return fmt.Errorf("lock group: %w", err)
	}

	const query = `UPDATE groups SET name = :name, course_id = :course_id, teacher_id = :teacher_id, room_id = :room_id,
		start_time = :start_time, end_time = :end_time, start_hour = :start_hour, end_hour = :end_hour, info = :info, status = :status WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("update group: %w", err)
	}

	if err = replaceGroupDays(ctx, tx, group.ID, dayIDs); err != nil {
		return err
	}
	if _, err = recomputeSalaryTx(ctx, tx, group.TeacherID); err != nil {
		return err
	}
	if prevTeacherID != group.TeacherID {
		if _, err = recomputeSalaryTx(ctx, tx, prevTeacherID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Delete removes a group with its roster links and re-derives the teacher's
// salary without the deleted group's revenue.
func (r *GroupRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin group delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var teacherID string
	if err = tx.GetContext(ctx, &teacherID, "SELECT teacher_id FROM groups WHERE id = $1 FOR UPDATE", id); err != nil {
		return fmt.Errorf("lock group: %w", err)
	}

	for _, table := range []string{"group_students", "group_archive_students", "group_days"} {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE group_id = $1", table), id); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM groups WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if _, err = recomputeSalaryTx(ctx, tx, teacherID); err != nil {
		return err
	}

	return tx.Commit()
}

// AddStudent enrolls a user into the active roster and re-derives the
// teacher's salary.
func (r *GroupRepository) AddStudent(ctx context.Context, groupID, userID string) error {
	return r.rosterChange(ctx, groupID, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO group_students (group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, query, groupID, userID); err != nil {
			return fmt.Errorf("enroll student: %w", err)
		}
		return nil
	})
}

// RemoveStudent drops a user from the active roster and re-derives the
// teacher's salary.
func (r *GroupRepository) RemoveStudent(ctx context.Context, groupID, userID string) error {
	return r.rosterChange(ctx, groupID, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM group_students WHERE group_id = $1 AND user_id = $2", groupID, userID); err != nil {
			return fmt.Errorf("remove student: %w", err)
		}
		return nil
	})
}

// ArchiveStudent moves a user from the active roster to the archived one,
// lowering the revenue-bearing count by one.
func (r *GroupRepository) ArchiveStudent(ctx context.Context, groupID, userID string) error {
	return r.rosterChange(ctx, groupID, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM group_students WHERE group_id = $1 AND user_id = $2", groupID, userID); err != nil {
			return fmt.Errorf("remove student: %w", err)
		}
		const query = `INSERT INTO group_archive_students (group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, query, groupID, userID); err != nil {
			return fmt.Errorf("archive student: %w", err)
		}
		return nil
	})
}

func (r *GroupRepository) rosterChange(ctx context.Context, groupID string, change func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin roster transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var teacherID string
	if err = tx.GetContext(ctx, &teacherID, "SELECT teacher_id FROM groups WHERE id = $1 FOR UPDATE", groupID); err != nil {
		return fmt.Errorf("lock group: %w", err)
	}
	if err = change(tx); err != nil {
		return err
	}
	if _, err = recomputeSalaryTx(ctx, tx, teacherID); err != nil {
		return err
	}

	return tx.Commit()
}

func replaceGroupDays(ctx context.Context, tx *sqlx.Tx, groupID string, dayIDs []string) error {
	if dayIDs == nil {
		return nil
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM group_days WHERE group_id = $1", groupID); err != nil {
		return fmt.Errorf("clear group days: %w", err)
	}
	for _, dayID := range dayIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO group_days (group_id, day_id) VALUES ($1, $2)", groupID, dayID); err != nil {
			return fmt.Errorf("attach group day: %w", err)
		}
	}
	return nil
}

func prefixedUserColumns(alias string) string {
	columns := strings.Split(userColumns, ", ")
	for i, column := range columns {
		columns[i] = alias + "." + column
	}
	return strings.Join(columns, ", ")
}
