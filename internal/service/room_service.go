package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edu-markaz/center-api/internal/models"
	"github.com/edu-markaz/center-api/internal/repository"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context, search string) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
}

type dayRepository interface {
	List(ctx context.Context) ([]models.Day, error)
	FindByID(ctx context.Context, id string) (*models.Day, error)
	Create(ctx context.Context, day *models.Day) error
	Update(ctx context.Context, day *models.Day) error
	Delete(ctx context.Context, id string) error
}

// RoomRequest represents payload for creating and updating rooms.
type RoomRequest struct {
	Name     string `json:"name" validate:"required,max=155"`
	Capacity int    `json:"capacity" validate:"gte=0"`
}

// DayRequest represents payload for creating and updating weekday labels.
type DayRequest struct {
	DayName string `json:"day_name" validate:"required,max=55"`
}

// RoomService manages classrooms.
type RoomService struct {
	repo      roomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService constructs a RoomService.
func NewRoomService(repo roomRepository, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, validator: validate, logger: logger}
}

// List returns rooms matched by the optional search term.
func (s *RoomService) List(ctx context.Context, search string) ([]models.Room, error) {
	rooms, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, nil
}

// Get returns a room by id.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// Create adds a room.
func (s *RoomService) Create(ctx context.Context, req RoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room := &models.Room{Name: strings.TrimSpace(req.Name), Capacity: req.Capacity}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	return room, nil
}

// Update modifies a room.
func (s *RoomService) Update(ctx context.Context, id string, req RoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	room.Name = strings.TrimSpace(req.Name)
	room.Capacity = req.Capacity
	if err := s.repo.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	return room, nil
}

// Delete removes a room. Rooms with groups still scheduled in them are
// protected and cannot be removed.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRoomInUse) {
			return appErrors.Clone(appErrors.ErrProtected, "room is still used by groups")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete room")
	}
	return nil
}

// DayService manages the weekday catalog.
type DayService struct {
	repo      dayRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDayService constructs a DayService.
func NewDayService(repo dayRepository, validate *validator.Validate, logger *zap.Logger) *DayService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DayService{repo: repo, validator: validate, logger: logger}
}

// List returns every weekday label.
func (s *DayService) List(ctx context.Context) ([]models.Day, error) {
	days, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list days")
	}
	return days, nil
}

// Get returns a weekday label by id.
func (s *DayService) Get(ctx context.Context, id string) (*models.Day, error) {
	day, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "day not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day")
	}
	return day, nil
}

// Create adds a weekday label.
func (s *DayService) Create(ctx context.Context, req DayRequest) (*models.Day, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day payload")
	}
	day := &models.Day{DayName: strings.TrimSpace(req.DayName)}
	if err := s.repo.Create(ctx, day); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create day")
	}
	return day, nil
}

// Update modifies a weekday label.
func (s *DayService) Update(ctx context.Context, id string, req DayRequest) (*models.Day, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day payload")
	}
	day, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	day.DayName = strings.TrimSpace(req.DayName)
	if err := s.repo.Update(ctx, day); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update day")
	}
	return day, nil
}

// Delete removes a weekday label.
func (s *DayService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete day")
	}
	return nil
}
