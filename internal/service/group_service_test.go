package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edu-markaz/center-api/internal/models"
	"github.com/edu-markaz/center-api/pkg/config"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

type mockGroupRepo struct {
	created     *models.Group
	createdDays []string
	detailCalls int
	detailErr   error
	roster      []string
}

func (m *mockGroupRepo) List(ctx context.Context, filter models.GroupFilter) ([]models.Group, int, error) {
	return nil, 0, nil
}

func (m *mockGroupRepo) FindByID(ctx context.Context, id string) (*models.Group, error) {
	if m.created != nil && m.created.ID == id {
		return m.created, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGroupRepo) GetDetail(ctx context.Context, id string) (*models.GroupDetail, error) {
	m.detailCalls++
	if m.detailErr != nil {
		return nil, m.detailErr
	}
	if m.created == nil || m.created.ID != id {
		return nil, sql.ErrNoRows
	}
	return &models.GroupDetail{Group: *m.created}, nil
}

func (m *mockGroupRepo) Create(ctx context.Context, group *models.Group, dayIDs []string) error {
	group.ID = "g1"
	m.created = group
	m.createdDays = dayIDs
	return nil
}

func (m *mockGroupRepo) Update(ctx context.Context, group *models.Group, dayIDs []string) error {
	m.created = group
	m.createdDays = dayIDs
	return nil
}

func (m *mockGroupRepo) Delete(ctx context.Context, id string) error {
	if m.created == nil || m.created.ID != id {
		return sql.ErrNoRows
	}
	m.created = nil
	return nil
}

func (m *mockGroupRepo) AddStudent(ctx context.Context, groupID, userID string) error {
	m.roster = append(m.roster, userID)
	return nil
}

func (m *mockGroupRepo) RemoveStudent(ctx context.Context, groupID, userID string) error {
	return nil
}

func (m *mockGroupRepo) ArchiveStudent(ctx context.Context, groupID, userID string) error {
	return nil
}

type mockGroupCache struct {
	store   map[string]models.GroupDetail
	deleted []string
}

func (m *mockGroupCache) Get(ctx context.Context, key string, dest interface{}) error {
	cached, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*models.GroupDetail) = cached
	return nil
}

func (m *mockGroupCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.store == nil {
		m.store = make(map[string]models.GroupDetail)
	}
	m.store[key] = *value.(*models.GroupDetail)
	return nil
}

func (m *mockGroupCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	delete(m.store, pattern)
	return nil
}

func validGroupRequest() CreateGroupRequest {
	return CreateGroupRequest{
		CourseID:  "0c8f7a0e-4f7d-4b9f-9a6b-3f1a2b3c4d5e",
		TeacherID: "1c8f7a0e-4f7d-4b9f-9a6b-3f1a2b3c4d5e",
		RoomID:    "2c8f7a0e-4f7d-4b9f-9a6b-3f1a2b3c4d5e",
		StartTime: "2024-09-01",
		StartHour: "14:00",
		EndHour:   "16:00",
	}
}

func TestGroupServiceCreateDerivesName(t *testing.T) {
	repo := &mockGroupRepo{}
	svc := NewGroupService(repo, nil, config.CacheConfig{}, NewValidator(), zap.NewNop())

	detail, err := svc.Create(context.Background(), validGroupRequest())
	require.NoError(t, err)
	assert.Equal(t, "2024-09-01 - guruh", detail.Name)
	assert.Equal(t, models.GroupSpare, detail.Status)
}

func TestGroupServiceCreateKeepsExplicitName(t *testing.T) {
	repo := &mockGroupRepo{}
	svc := NewGroupService(repo, nil, config.CacheConfig{}, NewValidator(), zap.NewNop())

	req := validGroupRequest()
	req.Name = "  Frontend kechki  "
	req.Status = "active"
	detail, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Frontend kechki", detail.Name)
	assert.Equal(t, models.GroupActive, detail.Status)
}

func TestGroupServiceCreateInvalidStartDate(t *testing.T) {
	svc := NewGroupService(&mockGroupRepo{}, nil, config.CacheConfig{}, NewValidator(), zap.NewNop())

	req := validGroupRequest()
	req.StartTime = "01.09.2024"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceCreateInvalidStatus(t *testing.T) {
	svc := NewGroupService(&mockGroupRepo{}, nil, config.CacheConfig{}, NewValidator(), zap.NewNop())

	req := validGroupRequest()
	req.Status = "paused"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceGetServesFromCache(t *testing.T) {
	repo := &mockGroupRepo{}
	cache := &mockGroupCache{store: map[string]models.GroupDetail{
		"group:detail:g1": {Group: models.Group{ID: "g1", Name: "cached"}},
	}}
	svc := NewGroupService(repo, cache, config.CacheConfig{Enabled: true, GroupTTL: time.Minute}, NewValidator(), zap.NewNop())

	detail, err := svc.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "cached", detail.Name)
	assert.Zero(t, repo.detailCalls)
}

func TestGroupServiceGetPopulatesCacheOnMiss(t *testing.T) {
	repo := &mockGroupRepo{created: &models.Group{ID: "g1", Name: "fresh"}}
	cache := &mockGroupCache{}
	svc := NewGroupService(repo, cache, config.CacheConfig{Enabled: true, GroupTTL: time.Minute}, NewValidator(), zap.NewNop())

	detail, err := svc.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "fresh", detail.Name)
	assert.Equal(t, 1, repo.detailCalls)
	assert.Contains(t, cache.store, "group:detail:g1")
}

func TestGroupServiceGetNotFound(t *testing.T) {
	svc := NewGroupService(&mockGroupRepo{}, nil, config.CacheConfig{}, NewValidator(), zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceAddStudentInvalidatesCache(t *testing.T) {
	repo := &mockGroupRepo{created: &models.Group{ID: "g1", Name: "fresh"}}
	cache := &mockGroupCache{store: map[string]models.GroupDetail{
		"group:detail:g1": {Group: models.Group{ID: "g1", Name: "stale"}},
	}}
	svc := NewGroupService(repo, cache, config.CacheConfig{Enabled: true, GroupTTL: time.Minute}, NewValidator(), zap.NewNop())

	detail, err := svc.AddStudent(context.Background(), "g1", RosterRequest{UserID: "3c8f7a0e-4f7d-4b9f-9a6b-3f1a2b3c4d5e"})
	require.NoError(t, err)
	assert.Equal(t, "fresh", detail.Name)
	assert.Contains(t, cache.deleted, "group:detail:g1")
	assert.Len(t, repo.roster, 1)
}

func TestGroupServiceRosterRequiresUUID(t *testing.T) {
	svc := NewGroupService(&mockGroupRepo{}, nil, config.CacheConfig{}, NewValidator(), zap.NewNop())

	_, err := svc.AddStudent(context.Background(), "g1", RosterRequest{UserID: "not-a-uuid"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
