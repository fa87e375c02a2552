package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
	appErrors "github.com/aryaniscoding/dbms-project-TE/pkg/errors"
	"github.com/aryaniscoding/dbms-project-TE/pkg/export"
)

type mockResultMarks struct {
	byStudent map[string][]models.MarkWithSubject
	calls     int
}

func (m *mockResultMarks) ListWithSubjectsByStudent(ctx context.Context, studentID string) ([]models.MarkWithSubject, error) {
	m.calls++
	return m.byStudent[studentID], nil
}

type mockResultStudents struct {
	students map[string]models.Student
}

func (m *mockResultStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

type mockResultGuard struct {
	studentID string
	err       error
}

func (m *mockResultGuard) RequireSelfStudent(ctx context.Context, claims *models.JWTClaims) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.studentID, nil
}

type mockResultCache struct {
	views map[string]models.ResultView
	sets  int
}

func (m *mockResultCache) Get(ctx context.Context, key string, dest interface{}) error {
	view, ok := m.views[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*models.ResultView) = view
	return nil
}

func (m *mockResultCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.views == nil {
		m.views = make(map[string]models.ResultView)
	}
	m.views[key] = value.(models.ResultView)
	m.sets++
	return nil
}

type mockPDFRenderer struct {
	lastTitle   string
	lastLead    []string
	lastSummary string
	lastRows    int
}

func (m *mockPDFRenderer) Render(data export.Dataset, title string, lead []string, summary string) ([]byte, error) {
	m.lastTitle = title
	m.lastLead = lead
	m.lastSummary = summary
	m.lastRows = len(data.Rows)
	return []byte("%PDF-stub"), nil
}

func markWithSubject(code, name string, marks int, grade string, points float64) models.MarkWithSubject {
	return models.MarkWithSubject{
		Mark:        models.Mark{Marks: marks, Grade: grade, GradePoints: points},
		SubjectCode: code,
		SubjectName: name,
		Credits:     4,
	}
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent}
}

func TestMyResultEmptyMarks(t *testing.T) {
	marks := &mockResultMarks{byStudent: map[string][]models.MarkWithSubject{}}
	students := &mockResultStudents{students: map[string]models.Student{
		"student-1": {ID: "student-1", RollNo: "101", Name: "Asha Rao"},
	}}
	svc := NewResultService(marks, students, &mockResultGuard{studentID: "student-1"}, nil, nil, nil, 0, nil)

	result, err := svc.MyResult(context.Background(), studentClaims())
	require.NoError(t, err)
	assert.NotNil(t, result.Marks)
	assert.Empty(t, result.Marks)
	assert.Equal(t, 0.0, result.CGPA)
}

func TestMyResultComputesCGPA(t *testing.T) {
	marks := &mockResultMarks{byStudent: map[string][]models.MarkWithSubject{
		"student-1": {
			markWithSubject("CS101", "Programming Fundamentals", 85, "A+", 9.0),
			markWithSubject("MA101", "Mathematics I", 62, "B+", 7.0),
		},
	}}
	students := &mockResultStudents{students: map[string]models.Student{
		"student-1": {ID: "student-1", RollNo: "101", Name: "Asha Rao"},
	}}
	svc := NewResultService(marks, students, &mockResultGuard{studentID: "student-1"}, nil, nil, nil, 0, nil)

	result, err := svc.MyResult(context.Background(), studentClaims())
	require.NoError(t, err)
	require.Len(t, result.Marks, 2)
	assert.Equal(t, 8.0, result.CGPA)
	assert.Equal(t, "CS101", result.Marks[0].SubjectCode)
}

func TestMyResultUsesCache(t *testing.T) {
	marks := &mockResultMarks{byStudent: map[string][]models.MarkWithSubject{
		"student-1": {markWithSubject("CS101", "Programming Fundamentals", 85, "A+", 9.0)},
	}}
	students := &mockResultStudents{students: map[string]models.Student{
		"student-1": {ID: "student-1", RollNo: "101", Name: "Asha Rao"},
	}}
	cache := &mockResultCache{}
	svc := NewResultService(marks, students, &mockResultGuard{studentID: "student-1"}, cache, nil, nil, time.Minute, nil)

	first, err := svc.MyResult(context.Background(), studentClaims())
	require.NoError(t, err)
	assert.Equal(t, 1, marks.calls)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.MyResult(context.Background(), studentClaims())
	require.NoError(t, err)
	assert.Equal(t, 1, marks.calls, "second read served from cache")
	assert.Equal(t, first.CGPA, second.CGPA)
}

func TestMyResultRecordsCacheHitsAndMisses(t *testing.T) {
	marks := &mockResultMarks{byStudent: map[string][]models.MarkWithSubject{
		"student-1": {markWithSubject("CS101", "Programming Fundamentals", 85, "A+", 9.0)},
	}}
	students := &mockResultStudents{students: map[string]models.Student{
		"student-1": {ID: "student-1", RollNo: "101", Name: "Asha Rao"},
	}}
	cache := &mockResultCache{}
	metrics := NewMetricsService()
	svc := NewResultService(marks, students, &mockResultGuard{studentID: "student-1"}, cache, nil, metrics, time.Minute, nil)

	_, err := svc.MyResult(context.Background(), studentClaims())
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheMisses))

	_, err = svc.MyResult(context.Background(), studentClaims())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheMisses))
}

func TestMyResultGuardFailurePropagates(t *testing.T) {
	guard := &mockResultGuard{err: appErrors.Clone(appErrors.ErrNotFound, "no student profile")}
	svc := NewResultService(&mockResultMarks{}, &mockResultStudents{}, guard, nil, nil, nil, 0, nil)

	_, err := svc.MyResult(context.Background(), studentClaims())
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMyResultPDF(t *testing.T) {
	marks := &mockResultMarks{byStudent: map[string][]models.MarkWithSubject{
		"student-1": {
			markWithSubject("CS101", "Programming Fundamentals", 85, "A+", 9.0),
			markWithSubject("MA101", "Mathematics I", 62, "B+", 7.0),
		},
	}}
	students := &mockResultStudents{students: map[string]models.Student{
		"student-1": {ID: "student-1", StudentCode: "TE001", RollNo: "101", Name: "Asha Rao"},
	}}
	pdf := &mockPDFRenderer{}
	svc := NewResultService(marks, students, &mockResultGuard{studentID: "student-1"}, nil, pdf, nil, 0, nil)

	data, err := svc.MyResultPDF(context.Background(), studentClaims())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "Statement of Marks", pdf.lastTitle)
	assert.Equal(t, 2, pdf.lastRows)
	assert.Contains(t, pdf.lastLead, "Roll No: 101")
	assert.Equal(t, "CGPA: 8.00", pdf.lastSummary)
}
