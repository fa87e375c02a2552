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

type enrollmentRepository interface {
	Exists(ctx context.Context, studentID, subjectID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
}

type enrollmentStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type enrollmentSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// EnrollRequest represents payload for enrolling a student into a subject.
type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
}

// EnrollmentService manages student-subject enrollment links.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  enrollmentStudentReader
	subjects  enrollmentSubjectReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService creates an instance of EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students enrollmentStudentReader, subjects enrollmentSubjectReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{repo: repo, students: students, subjects: subjects, validator: validate, logger: logger}
}

// Enroll links a student to a subject. Both must exist and the pair must not
// already be enrolled.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	exists, err := s.repo.Exists(ctx, req.StudentID, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in subject")
	}

	enrollment := &models.Enrollment{StudentID: req.StudentID, SubjectID: req.SubjectID}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.logger.Info("enrollment created", zap.String("student_id", req.StudentID), zap.String("subject_id", req.SubjectID))
	return enrollment, nil
}

// List returns joined enrollment rows filtered by student or subject.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	if enrollments == nil {
		enrollments = []models.EnrollmentDetail{}
	}
	return enrollments, nil
}
