package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edu-markaz/center-api/internal/models"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

type examRepository interface {
	List(ctx context.Context, groupID string, page, pageSize int) ([]models.Exam, int, error)
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	Examiners(ctx context.Context, examID string) ([]models.EmployeeDetail, error)
	Create(ctx context.Context, exam *models.Exam, examinerIDs []string) error
	Update(ctx context.Context, exam *models.Exam, examinerIDs []string) error
	Delete(ctx context.Context, id string) error
}

type roomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

// ExamRequest represents payload for scheduling and rescheduling exams.
// Date is formatted as YYYY-MM-DD. A nil ExaminerIDs on update leaves the
// examiner set unchanged.
type ExamRequest struct {
	GroupID     string   `json:"group_id" validate:"required,uuid4"`
	MinScore    int      `json:"min_score" validate:"gte=0"`
	MaxScore    int      `json:"max_score" validate:"gtefield=MinScore"`
	Date        string   `json:"date" validate:"required"`
	RoomID      *string  `json:"room_id" validate:"omitempty,uuid4"`
	ExaminerIDs []string `json:"exam_teacher" validate:"omitempty,dive,uuid4"`
}

// ExamService manages scored assessments and their examiner sets.
type ExamService struct {
	repo      examRepository
	groups    groupDetailReader
	rooms     roomReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs an ExamService.
func NewExamService(repo examRepository, groups groupDetailReader, rooms roomReader, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, groups: groups, rooms: rooms, validator: validate, logger: logger}
}

// List returns exam rows, flat, with pagination data.
func (s *ExamService) List(ctx context.Context, groupID string, page, pageSize int) ([]models.Exam, *models.Pagination, error) {
	exams, total, err := s.repo.List(ctx, groupID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	return exams, paginationFor(page, pageSize, total), nil
}

// Get returns the nested shape of an exam.
func (s *ExamService) Get(ctx context.Context, id string) (*models.ExamDetail, error) {
	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	return s.detail(ctx, exam)
}

// Create schedules an exam with its examiner set.
func (s *ExamService) Create(ctx context.Context, req ExamRequest) (*models.ExamDetail, error) {
	exam, err := s.assemble(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, exam, req.ExaminerIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}
	return s.detail(ctx, exam)
}

// Update reschedules an exam.
func (s *ExamService) Update(ctx context.Context, id string, req ExamRequest) (*models.ExamDetail, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	exam, err := s.assemble(req)
	if err != nil {
		return nil, err
	}
	exam.ID = id
	if err := s.repo.Update(ctx, exam, req.ExaminerIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam")
	}
	return s.detail(ctx, exam)
}

// Delete removes an exam and its examiner links.
func (s *ExamService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam")
	}
	return nil
}

func (s *ExamService) assemble(req ExamRequest) (*models.Exam, error) {
	// Score window defaults to 30..100 when the payload leaves it out.
	if req.MaxScore == 0 {
		req.MaxScore = 100
		if req.MinScore == 0 {
			req.MinScore = 30
		}
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be formatted as YYYY-MM-DD")
	}
	return &models.Exam{
		GroupID:  req.GroupID,
		MinScore: req.MinScore,
		MaxScore: req.MaxScore,
		Date:     date,
		RoomID:   req.RoomID,
	}, nil
}

func (s *ExamService) detail(ctx context.Context, exam *models.Exam) (*models.ExamDetail, error) {
	group, err := s.groups.GetDetail(ctx, exam.GroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam group")
	}
	examiners, err := s.repo.Examiners(ctx, exam.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load examiners")
	}
	if examiners == nil {
		examiners = []models.EmployeeDetail{}
	}

	detail := &models.ExamDetail{Exam: *exam, Group: *group, Examiners: examiners}
	if exam.RoomID != nil {
		room, err := s.rooms.FindByID(ctx, *exam.RoomID)
		if err != nil {
			if err != sql.ErrNoRows {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam room")
			}
		} else {
			detail.Room = room
		}
	}
	return detail, nil
}
