package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aryaniscoding/dbms-project-TE/internal/grading"
	"github.com/aryaniscoding/dbms-project-TE/internal/models"
	appErrors "github.com/aryaniscoding/dbms-project-TE/pkg/errors"
)

type markRepo interface {
	Upsert(ctx context.Context, mark *models.Mark) (bool, error)
	FindByStudentAndSubject(ctx context.Context, studentID, subjectID string) (*models.Mark, error)
}

type markStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type markGuard interface {
	RequireSubjectOwnership(ctx context.Context, claims *models.JWTClaims, subjectID string) (*models.Subject, error)
}

type resultCacheInvalidator interface {
	Delete(ctx context.Context, key string) error
}

// SubmitMarkRequest is a teacher's mark submission payload.
type SubmitMarkRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	Marks     int    `json:"marks" validate:"gte=0,lte=100"`
}

// MarkService owns the one-mark-per-(student,subject) invariant. Submission
// is an upsert: a second submission for the same pair overwrites marks and
// grade while the creator of the original row is preserved.
type MarkService struct {
	marks     markRepo
	students  markStudentReader
	guard     markGuard
	cache     resultCacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarkService constructs MarkService. metrics may be nil to disable
// instrumentation.
func NewMarkService(marks markRepo, students markStudentReader, guard markGuard, cache resultCacheInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *MarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkService{marks: marks, students: students, guard: guard, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Submit validates, authorizes and upserts a mark on behalf of a teacher.
// Marks outside [0,100] are rejected before any grade is derived.
func (s *MarkService) Submit(ctx context.Context, claims *models.JWTClaims, req SubmitMarkRequest) (*models.MarkReceipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mark payload")
	}
	if !grading.ValidMarks(req.Marks) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "marks must be between 0 and 100")
	}

	subject, err := s.guard.RequireSubjectOwnership(ctx, claims, req.SubjectID)
	if err != nil {
		return nil, err
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	grade := grading.FromMarks(req.Marks)
	mark := &models.Mark{
		StudentID:   student.ID,
		SubjectID:   subject.ID,
		Marks:       req.Marks,
		Grade:       grade.Letter,
		GradePoints: grade.Points,
		CreatedBy:   claims.UserID,
	}

	start := time.Now()
	inserted, err := s.marks.Upsert(ctx, mark)
	s.metrics.ObserveDBQuery("mark_upsert", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert mark")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, resultCacheKey(student.ID)); err != nil {
			s.logger.Warn("failed to invalidate result cache", zap.String("student_id", student.ID), zap.Error(err))
		}
	}

	status := models.MarkStatusUpdated
	if inserted {
		status = models.MarkStatusCreated
	}
	s.logger.Info("mark submitted",
		zap.String("student_id", student.ID),
		zap.String("subject_id", subject.ID),
		zap.Int("marks", req.Marks),
		zap.String("status", status),
	)

	return &models.MarkReceipt{Status: status, Mark: mark}, nil
}

func resultCacheKey(studentID string) string {
	return "result:" + studentID
}
