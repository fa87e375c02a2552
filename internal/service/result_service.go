package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aryaniscoding/dbms-project-TE/internal/grading"
	"github.com/aryaniscoding/dbms-project-TE/internal/models"
	appErrors "github.com/aryaniscoding/dbms-project-TE/pkg/errors"
	"github.com/aryaniscoding/dbms-project-TE/pkg/export"
)

type resultMarkReader interface {
	ListWithSubjectsByStudent(ctx context.Context, studentID string) ([]models.MarkWithSubject, error)
}

type resultStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type resultGuard interface {
	RequireSelfStudent(ctx context.Context, claims *models.JWTClaims) (string, error)
}

type resultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type resultPDFRenderer interface {
	Render(data export.Dataset, title string, lead []string, summary string) ([]byte, error)
}

// ResultService assembles a student's result view from persisted marks.
type ResultService struct {
	marks    resultMarkReader
	students resultStudentReader
	guard    resultGuard
	cache    resultCache
	pdf      resultPDFRenderer
	metrics  *MetricsService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewResultService constructs ResultService. cache and metrics may be nil to
// disable result caching and instrumentation respectively.
func NewResultService(marks resultMarkReader, students resultStudentReader, guard resultGuard, cache resultCache, pdf resultPDFRenderer, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{marks: marks, students: students, guard: guard, cache: cache, pdf: pdf, metrics: metrics, cacheTTL: cacheTTL, logger: logger}
}

// MyProfile returns the student profile linked to the principal.
func (s *ResultService) MyProfile(ctx context.Context, claims *models.JWTClaims) (*models.Student, error) {
	studentID, err := s.guard.RequireSelfStudent(ctx, claims)
	if err != nil {
		return nil, err
	}
	return s.loadStudent(ctx, studentID)
}

// MyResult computes the principal's aggregated result. A student with no
// marks gets an empty marks list and CGPA 0.0.
func (s *ResultService) MyResult(ctx context.Context, claims *models.JWTClaims) (*models.ResultView, error) {
	studentID, err := s.guard.RequireSelfStudent(ctx, claims)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached models.ResultView
		err := s.cache.Get(ctx, resultCacheKey(studentID), &cached)
		if err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		s.metrics.RecordCacheOperation(false)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("result cache read failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	marks, err := s.marks.ListWithSubjectsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marks")
	}

	result := grading.ComputeResult(*student, marks)

	if s.cache != nil {
		if err := s.cache.Set(ctx, resultCacheKey(studentID), result, s.cacheTTL); err != nil {
			s.logger.Warn("result cache write failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	return &result, nil
}

// MyResultPDF renders the principal's result view as a PDF result card.
func (s *ResultService) MyResultPDF(ctx context.Context, claims *models.JWTClaims) ([]byte, error) {
	if s.pdf == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "pdf export unavailable")
	}

	result, err := s.MyResult(ctx, claims)
	if err != nil {
		return nil, err
	}

	headers := []string{"Subject Code", "Subject", "Marks", "Grade", "Grade Points"}
	rows := make([]map[string]string, 0, len(result.Marks))
	for _, line := range result.Marks {
		rows = append(rows, map[string]string{
			"Subject Code": line.SubjectCode,
			"Subject":      line.SubjectName,
			"Marks":        fmt.Sprintf("%d", line.Marks),
			"Grade":        line.Grade,
			"Grade Points": fmt.Sprintf("%.1f", line.GradePoints),
		})
	}

	lead := []string{
		fmt.Sprintf("Name: %s", result.Student.Name),
		fmt.Sprintf("Roll No: %s", result.Student.RollNo),
		fmt.Sprintf("Student Code: %s", result.Student.StudentCode),
	}
	summary := fmt.Sprintf("CGPA: %.2f", result.CGPA)

	data, err := s.pdf.Render(export.Dataset{Headers: headers, Rows: rows}, "Statement of Marks", lead, summary)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render result card")
	}
	return data, nil
}

func (s *ResultService) loadStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}
