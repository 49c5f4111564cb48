package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edu-markaz/center-api/internal/models"
	"github.com/edu-markaz/center-api/pkg/config"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type groupRepository interface {
	List(ctx context.Context, filter models.GroupFilter) ([]models.Group, int, error)
	FindByID(ctx context.Context, id string) (*models.Group, error)
	GetDetail(ctx context.Context, id string) (*models.GroupDetail, error)
	Create(ctx context.Context, group *models.Group, dayIDs []string) error
	Update(ctx context.Context, group *models.Group, dayIDs []string) error
	Delete(ctx context.Context, id string) error
	AddStudent(ctx context.Context, groupID, userID string) error
	RemoveStudent(ctx context.Context, groupID, userID string) error
	ArchiveStudent(ctx context.Context, groupID, userID string) error
}

type groupCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreateGroupRequest represents the payload needed to open a class section.
// Name may be left empty, in which case it is derived from the start date.
type CreateGroupRequest struct {
	Name      string   `json:"name" validate:"max=155"`
	CourseID  string   `json:"course_id" validate:"required,uuid4"`
	TeacherID string   `json:"teacher_id" validate:"required,uuid4"`
	RoomID    string   `json:"room_id" validate:"required,uuid4"`
	StartTime string   `json:"start_time" validate:"required"`
	EndTime   *string  `json:"end_time"`
	StartHour string   `json:"start_hour" validate:"required"`
	EndHour   string   `json:"end_hour" validate:"required"`
	Info      *string  `json:"info"`
	Status    string   `json:"status" validate:"omitempty,oneof=spare active archive"`
	DayIDs    []string `json:"day_ids" validate:"omitempty,dive,uuid4"`
}

// UpdateGroupRequest mirrors CreateGroupRequest for rewrites. A nil DayIDs
// leaves the weekday set unchanged.
type UpdateGroupRequest struct {
	Name      string   `json:"name" validate:"max=155"`
	CourseID  string   `json:"course_id" validate:"required,uuid4"`
	TeacherID string   `json:"teacher_id" validate:"required,uuid4"`
	RoomID    string   `json:"room_id" validate:"required,uuid4"`
	StartTime string   `json:"start_time" validate:"required"`
	EndTime   *string  `json:"end_time"`
	StartHour string   `json:"start_hour" validate:"required"`
	EndHour   string   `json:"end_hour" validate:"required"`
	Info      *string  `json:"info"`
	Status    string   `json:"status" validate:"omitempty,oneof=spare active archive"`
	DayIDs    []string `json:"day_ids" validate:"omitempty,dive,uuid4"`
}

// RosterRequest identifies the student for enrollment operations.
type RosterRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

// GroupService orchestrates class sections, their rosters and the cached
// nested detail payloads.
type GroupService struct {
	repo      groupRepository
	cache     groupCache
	cacheCfg  config.CacheConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs a GroupService. The cache may be nil, in which
// case detail reads always hit the database.
func NewGroupService(repo groupRepository, cache groupCache, cacheCfg config.CacheConfig, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, cache: cache, cacheCfg: cacheCfg, validator: validate, logger: logger}
}

// List returns groups plus pagination data.
func (s *GroupService) List(ctx context.Context, filter models.GroupFilter) ([]models.Group, *models.Pagination, error) {
	groups, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return groups, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns the nested shape of a group, served from the cache when warm.
func (s *GroupService) Get(ctx context.Context, id string) (*models.GroupDetail, error) {
	key := groupCacheKey(id)
	if s.cacheEnabled() {
		var cached models.GroupDetail
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("group cache read failed", zap.String("group_id", id), zap.Error(err))
		}
	}

	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, key, detail, s.cacheCfg.GroupTTL); err != nil {
			s.logger.Warn("group cache write failed", zap.String("group_id", id), zap.Error(err))
		}
	}
	return detail, nil
}

// Create opens a class section. An empty name is derived from the start
// date, and the teacher's salary is re-derived as part of the save.
func (s *GroupService) Create(ctx context.Context, req CreateGroupRequest) (*models.GroupDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	group, err := s.assembleGroup(req.Name, req.CourseID, req.TeacherID, req.RoomID, req.StartTime, req.EndTime, req.StartHour, req.EndHour, req.Info, req.Status)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, group, req.DayIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}
	return s.freshDetail(ctx, group.ID)
}

// Update rewrites a class section and re-derives salaries of the teachers
// involved.
func (s *GroupService) Update(ctx context.Context, id string, req UpdateGroupRequest) (*models.GroupDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	group, err := s.assembleGroup(req.Name, req.CourseID, req.TeacherID, req.RoomID, req.StartTime, req.EndTime, req.StartHour, req.EndHour, req.Info, req.Status)
	if err != nil {
		return nil, err
	}
	group.ID = existing.ID
	group.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, group, req.DayIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update group")
	}
	return s.freshDetail(ctx, id)
}

// Delete removes a class section and releases its revenue from the
// teacher's salary.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete group")
	}
	s.invalidate(ctx, id)
	return nil
}

// AddStudent enrolls a student into the active roster.
func (s *GroupService) AddStudent(ctx context.Context, groupID string, req RosterRequest) (*models.GroupDetail, error) {
	return s.rosterOp(ctx, groupID, req, s.repo.AddStudent, "failed to enroll student")
}

// RemoveStudent drops a student from the active roster.
func (s *GroupService) RemoveStudent(ctx context.Context, groupID string, req RosterRequest) (*models.GroupDetail, error) {
	return s.rosterOp(ctx, groupID, req, s.repo.RemoveStudent, "failed to remove student")
}

// ArchiveStudent moves a student to the archived roster, which no longer
// counts toward teacher revenue.
func (s *GroupService) ArchiveStudent(ctx context.Context, groupID string, req RosterRequest) (*models.GroupDetail, error) {
	return s.rosterOp(ctx, groupID, req, s.repo.ArchiveStudent, "failed to archive student")
}

func (s *GroupService) rosterOp(ctx context.Context, groupID string, req RosterRequest, op func(ctx context.Context, groupID, userID string) error, failure string) (*models.GroupDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid roster payload")
	}
	if err := op(ctx, groupID, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, failure)
	}
	return s.freshDetail(ctx, groupID)
}

func (s *GroupService) assembleGroup(name, courseID, teacherID, roomID, startTime string, endTime *string, startHour, endHour string, info *string, status string) (*models.Group, error) {
	start, err := time.Parse(dateLayout, startTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start_time must be formatted as YYYY-MM-DD")
	}

	var end *time.Time
	if endTime != nil && *endTime != "" {
		parsed, err := time.Parse(dateLayout, *endTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "end_time must be formatted as YYYY-MM-DD")
		}
		end = &parsed
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("%s - guruh", start.Format(dateLayout))
	}
	if status == "" {
		status = string(models.GroupSpare)
	}

	return &models.Group{
		Name:      name,
		CourseID:  courseID,
		TeacherID: teacherID,
		RoomID:    roomID,
		StartTime: start,
		EndTime:   end,
		StartHour: startHour,
		EndHour:   endHour,
		Info:      info,
		Status:    models.GroupStatus(status),
	}, nil
}

// freshDetail invalidates the cached payload and re-reads the nested shape
// after a write.
func (s *GroupService) freshDetail(ctx context.Context, id string) (*models.GroupDetail, error) {
	s.invalidate(ctx, id)
	return s.Get(ctx, id)
}

func (s *GroupService) invalidate(ctx context.Context, id string) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, groupCacheKey(id)); err != nil {
		s.logger.Warn("group cache invalidation failed", zap.String("group_id", id), zap.Error(err))
	}
}

func (s *GroupService) cacheEnabled() bool {
	return s.cache != nil && s.cacheCfg.Enabled
}

func groupCacheKey(id string) string {
	return "group:detail:" + id
}
