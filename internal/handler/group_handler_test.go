package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edu-markaz/center-api/internal/models"
	"github.com/edu-markaz/center-api/internal/service"
	"github.com/edu-markaz/center-api/pkg/config"
)

type rosterRepoStub struct {
	removed  [][2]string
	archived [][2]string
}

func (m *rosterRepoStub) List(ctx context.Context, filter models.GroupFilter) ([]models.Group, int, error) {
	return nil, 0, nil
}

func (m *rosterRepoStub) FindByID(ctx context.Context, id string) (*models.Group, error) {
	return &models.Group{ID: id}, nil
}

func (m *rosterRepoStub) GetDetail(ctx context.Context, id string) (*models.GroupDetail, error) {
	return &models.GroupDetail{Group: models.Group{ID: id}}, nil
}

func (m *rosterRepoStub) Create(ctx context.Context, group *models.Group, dayIDs []string) error {
	return nil
}

func (m *rosterRepoStub) Update(ctx context.Context, group *models.Group, dayIDs []string) error {
	return nil
}

func (m *rosterRepoStub) Delete(ctx context.Context, id string) error { return nil }

func (m *rosterRepoStub) AddStudent(ctx context.Context, groupID, userID string) error { return nil }

func (m *rosterRepoStub) RemoveStudent(ctx context.Context, groupID, userID string) error {
	m.removed = append(m.removed, [2]string{groupID, userID})
	return nil
}

func (m *rosterRepoStub) ArchiveStudent(ctx context.Context, groupID, userID string) error {
	m.archived = append(m.archived, [2]string{groupID, userID})
	return nil
}

func newRosterRouter(repo *rosterRepoStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewGroupService(repo, nil, config.CacheConfig{}, service.NewValidator(), zap.NewNop())
	h := NewGroupHandler(svc)

	r := gin.New()
	groups := r.Group("/api/v1/groups")
	groups.POST("/:id/students", h.AddStudent)
	groups.DELETE("/:id/students/:uid", h.RemoveStudent)
	groups.POST("/:id/students/:uid/archive", h.ArchiveStudent)
	return r
}

func TestGroupHandlerRemoveStudentRoute(t *testing.T) {
	repo := &rosterRepoStub{}
	router := newRosterRouter(repo)

	const uid = "0c8f7a0e-4f7d-4b9f-9a6b-3f1a2b3c4d5e"
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/groups/g1/students/"+uid, nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.removed, 1)
	assert.Equal(t, [2]string{"g1", uid}, repo.removed[0])
}

func TestGroupHandlerArchiveStudentRoute(t *testing.T) {
	repo := &rosterRepoStub{}
	router := newRosterRouter(repo)

	const uid = "0c8f7a0e-4f7d-4b9f-9a6b-3f1a2b3c4d5e"
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups/g1/students/"+uid+"/archive", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.archived, 1)
	assert.Equal(t, [2]string{"g1", uid}, repo.archived[0])
}

func TestGroupHandlerRemoveStudentRejectsBadID(t *testing.T) {
	repo := &rosterRepoStub{}
	router := newRosterRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/groups/g1/students/not-a-uuid", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.removed)
}
