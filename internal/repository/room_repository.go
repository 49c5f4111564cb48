package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edu-markaz/center-api/internal/models"
)

// RoomRepository manages persistence for classrooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns all rooms, optionally matched by name.
func (r *RoomRepository) List(ctx context.Context, search string) ([]models.Room, error) {
	query := "SELECT id, name, capacity FROM rooms"
	var args []interface{}
	if search != "" {
		query += " WHERE LOWER(name) LIKE $1"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += " ORDER BY name ASC"

	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// FindByID fetches a room by ID.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	const query = `SELECT id, name, capacity FROM rooms WHERE id = $1`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// Create inserts a new room record.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	const query = `INSERT INTO rooms (id, name, capacity) VALUES (:id, :name, :capacity)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Update modifies an existing room record.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	const query = `UPDATE rooms SET name = :name, capacity = :capacity WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

// Delete removes a room unless a group still meets there. Exams referencing
// the room keep their row with the venue nulled, within the same
// transaction, so a failed delete leaves everything untouched.
func (r *RoomRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin room delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var groups int
	if err = tx.GetContext(ctx, &groups, "SELECT COUNT(*) FROM groups WHERE room_id = $1", id); err != nil {
		return fmt.Errorf("count room groups: %w", err)
	}
	if groups > 0 {
		err = ErrRoomInUse
		return err
	}

	if _, err = tx.ExecContext(ctx, "UPDATE exams SET room_id = NULL WHERE room_id = $1", id); err != nil {
		return fmt.Errorf("detach exams: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM rooms WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}

	return tx.Commit()
}

// DayRepository manages the weekday catalog.
type DayRepository struct {
	db *sqlx.DB
}

// NewDayRepository constructs a DayRepository.
func NewDayRepository(db *sqlx.DB) *DayRepository {
	return &DayRepository{db: db}
}

// List returns every weekday label.
func (r *DayRepository) List(ctx context.Context) ([]models.Day, error) {
	var days []models.Day
	if err := r.db.SelectContext(ctx, &days, "SELECT id, day_name FROM days ORDER BY day_name ASC"); err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	return days, nil
}

// FindByID fetches a weekday by ID.
func (r *DayRepository) FindByID(ctx context.Context, id string) (*models.Day, error) {
	var day models.Day
	if err := r.db.GetContext(ctx, &day, "SELECT id, day_name FROM days WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &day, nil
}

// Create inserts a new weekday label.
func (r *DayRepository) Create(ctx context.Context, day *models.Day) error {
	if day.ID == "" {
		day.ID = uuid.NewString()
	}
	if _, err := r.db.NamedExecContext(ctx, "INSERT INTO days (id, day_name) VALUES (:id, :day_name)", day); err != nil {
		return fmt.Errorf("create day: %w", err)
	}
	return nil
}

// Update modifies a weekday label.
func (r *DayRepository) Update(ctx context.Context, day *models.Day) error {
	if _, err := r.db.NamedExecContext(ctx, "UPDATE days SET day_name = :day_name WHERE id = :id", day); err != nil {
		return fmt.Errorf("update day: %w", err)
	}
	return nil
}

// Delete removes a weekday label and its group links.
func (r *DayRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM days WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete day: %w", err)
	}
	return nil
}
