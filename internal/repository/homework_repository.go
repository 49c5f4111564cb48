package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edu-markaz/center-api/internal/models"
)

// HomeworkRepository manages homework assignments.
type HomeworkRepository struct {
	db *sqlx.DB
}

// NewHomeworkRepository constructs a HomeworkRepository.
func NewHomeworkRepository(db *sqlx.DB) *HomeworkRepository {
	return &HomeworkRepository{db: db}
}

const homeworkColumns = "id, group_id, teacher_id, work, created_at"

// List returns homework rows for an optional group along with total count.
func (r *HomeworkRepository) List(ctx context.Context, groupID string, page, pageSize int) ([]models.Homework, int, error) {
	base := "FROM homeworks WHERE 1=1"
	var args []interface{}
	if groupID != "" {
		base += " AND group_id = $1"
		args = append(args, groupID)
	}
	limit, offset := pageWindow(page, pageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", homeworkColumns, base, limit, offset)
	var homeworks []models.Homework
	if err := r.db.SelectContext(ctx, &homeworks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list homeworks: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count homeworks: %w", err)
	}

	return homeworks, total, nil
}

// FindByID fetches a homework row.
func (r *HomeworkRepository) FindByID(ctx context.Context, id string) (*models.Homework, error) {
	query := fmt.Sprintf("SELECT %s FROM homeworks WHERE id = $1", homeworkColumns)
	var homework models.Homework
	if err := r.db.GetContext(ctx, &homework, query, id); err != nil {
		return nil, err
	}
	return &homework, nil
}

// Create inserts a homework row.
func (r *HomeworkRepository) Create(ctx context.Context, homework *models.Homework) error {
	if homework.ID == "" {
		homework.ID = uuid.NewString()
	}
	if homework.CreatedAt.IsZero() {
		homework.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO homeworks (id, group_id, teacher_id, work, created_at) VALUES (:id, :group_id, :teacher_id, :work, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, homework); err != nil {
		return fmt.Errorf("create homework: %w", err)
	}
	return nil
}

// Update modifies a homework row.
func (r *HomeworkRepository) Update(ctx context.Context, homework *models.Homework) error {
	const query = `UPDATE homeworks SET group_id = :group_id, teacher_id = :teacher_id, work = :work WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, homework); err != nil {
		return fmt.Errorf("update homework: %w", err)
	}
	return nil
}

// Delete removes a homework row.
func (r *HomeworkRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM homeworks WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete homework: %w", err)
	}
	return nil
}
