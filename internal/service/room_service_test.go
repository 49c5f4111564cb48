package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edu-markaz/center-api/internal/models"
	"github.com/edu-markaz/center-api/internal/repository"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

type mockRoomRepo struct {
	rooms     map[string]*models.Room
	created   *models.Room
	deleteErr error
	deletedID string
}

func (m *mockRoomRepo) List(ctx context.Context, search string) ([]models.Room, error) {
	var out []models.Room
	for _, r := range m.rooms {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockRoomRepo) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if r, ok := m.rooms[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRoomRepo) Create(ctx context.Context, room *models.Room) error {
	room.ID = "r1"
	m.created = room
	return nil
}

func (m *mockRoomRepo) Update(ctx context.Context, room *models.Room) error {
	return nil
}

func (m *mockRoomRepo) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedID = id
	return nil
}

func TestRoomServiceCreate(t *testing.T) {
	repo := &mockRoomRepo{}
	svc := NewRoomService(repo, NewValidator(), zap.NewNop())

	room, err := svc.Create(context.Background(), RoomRequest{Name: " 203-xona ", Capacity: 18})
	require.NoError(t, err)
	assert.Equal(t, "203-xona", room.Name)
	assert.Equal(t, 18, room.Capacity)
}

func TestRoomServiceCreateRequiresName(t *testing.T) {
	svc := NewRoomService(&mockRoomRepo{}, NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), RoomRequest{Capacity: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRoomServiceCreateNegativeCapacity(t *testing.T) {
	svc := NewRoomService(&mockRoomRepo{}, NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), RoomRequest{Name: "203-xona", Capacity: -1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRoomServiceDeleteProtected(t *testing.T) {
	repo := &mockRoomRepo{
		rooms:     map[string]*models.Room{"r1": {ID: "r1", Name: "203-xona"}},
		deleteErr: repository.ErrRoomInUse,
	}
	svc := NewRoomService(repo, NewValidator(), zap.NewNop())

	err := svc.Delete(context.Background(), "r1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrProtected.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrProtected.Status, appErr.Status)
}

func TestRoomServiceDelete(t *testing.T) {
	repo := &mockRoomRepo{rooms: map[string]*models.Room{"r1": {ID: "r1", Name: "203-xona"}}}
	svc := NewRoomService(repo, NewValidator(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "r1"))
	assert.Equal(t, "r1", repo.deletedID)
}

type mockDayRepo struct {
	days    map[string]*models.Day
	created *models.Day
}

func (m *mockDayRepo) List(ctx context.Context) ([]models.Day, error) {
	var out []models.Day
	for _, d := range m.days {
		out = append(out, *d)
	}
	return out, nil
}

func (m *mockDayRepo) FindByID(ctx context.Context, id string) (*models.Day, error) {
	if d, ok := m.days[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDayRepo) Create(ctx context.Context, day *models.Day) error {
	day.ID = "d1"
	m.created = day
	return nil
}

func (m *mockDayRepo) Update(ctx context.Context, day *models.Day) error {
	return nil
}

func (m *mockDayRepo) Delete(ctx context.Context, id string) error {
	return nil
}

func TestDayServiceCreate(t *testing.T) {
	repo := &mockDayRepo{}
	svc := NewDayService(repo, NewValidator(), zap.NewNop())

	day, err := svc.Create(context.Background(), DayRequest{DayName: " Dushanba "})
	require.NoError(t, err)
	assert.Equal(t, "Dushanba", day.DayName)
}

func TestDayServiceGetNotFound(t *testing.T) {
	svc := NewDayService(&mockDayRepo{}, NewValidator(), zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
