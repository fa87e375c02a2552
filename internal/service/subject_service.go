package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
	appErrors "github.com/aryaniscoding/dbms-project-TE/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Subject, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	AssignTeacher(ctx context.Context, subjectID, teacherID string) error
}

type subjectUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateSubjectRequest represents payload for registering a subject.
type CreateSubjectRequest struct {
	Code      string `json:"code" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Credits   int    `json:"credits" validate:"gte=0"`
	TeacherID string `json:"teacher_id"`
}

// AssignTeacherRequest represents payload for assigning a subject owner.
type AssignTeacherRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
}

// SubjectService handles subject catalog management.
type SubjectService struct {
	repo      subjectRepository
	users     subjectUserReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates an instance of SubjectService.
func NewSubjectService(repo subjectRepository, users subjectUserReader, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubjectService{repo: repo, users: users, validator: validate, logger: logger}
}

// List returns subjects with pagination metadata.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return subjects, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ListByTeacher returns the subjects owned by the given teacher.
func (s *SubjectService) ListByTeacher(ctx context.Context, teacherID string) ([]models.Subject, error) {
	subjects, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// Create registers a new subject. Subject codes are unique. An optional
// teacher_id assigns an owner at creation time.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create subject payload")
	}

	exists, err := s.repo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
	}

	subject := &models.Subject{
		Code:    req.Code,
		Name:    req.Name,
		Credits: req.Credits,
	}

	if req.TeacherID != "" {
		if err := s.checkTeacher(ctx, req.TeacherID); err != nil {
			return nil, err
		}
		teacherID := req.TeacherID
		subject.TeacherID = &teacherID
	}

	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}

	s.logger.Info("subject created", zap.String("code", subject.Code))
	return subject, nil
}

// AssignTeacher sets the owning teacher of a subject.
func (s *SubjectService) AssignTeacher(ctx context.Context, subjectID string, req AssignTeacherRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assign teacher payload")
	}

	if _, err := s.repo.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	if err := s.checkTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	if err := s.repo.AssignTeacher(ctx, subjectID, req.TeacherID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign teacher")
	}

	subject, err := s.repo.FindByID(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload subject")
	}

	s.logger.Info("teacher assigned", zap.String("subject_id", subjectID), zap.String("teacher_id", req.TeacherID))
	return subject, nil
}

func (s *SubjectService) checkTeacher(ctx context.Context, teacherID string) error {
	user, err := s.users.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if user.Role != models.RoleTeacher {
		return appErrors.Clone(appErrors.ErrValidation, "assigned user is not a teacher")
	}
	return nil
}
