package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
	appErrors "github.com/aryaniscoding/dbms-project-TE/pkg/errors"
)

type mockMarkRepo struct {
	stored map[string]models.Mark
}

func markKey(studentID, subjectID string) string {
	return studentID + "|" + subjectID
}

func (m *mockMarkRepo) Upsert(ctx context.Context, mark *models.Mark) (bool, error) {
	if m.stored == nil {
		m.stored = make(map[string]models.Mark)
	}
	key := markKey(mark.StudentID, mark.SubjectID)
	if existing, ok := m.stored[key]; ok {
		existing.Marks = mark.Marks
		existing.Grade = mark.Grade
		existing.GradePoints = mark.GradePoints
		m.stored[key] = existing
		*mark = existing
		return false, nil
	}
	mark.ID = "mark-" + key
	m.stored[key] = *mark
	return true, nil
}

func (m *mockMarkRepo) FindByStudentAndSubject(ctx context.Context, studentID, subjectID string) (*models.Mark, error) {
	mark, ok := m.stored[markKey(studentID, subjectID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &mark, nil
}

type mockMarkStudents struct {
	students map[string]models.Student
}

func (m *mockMarkStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

type mockMarkGuard struct {
	ownedSubjects map[string]models.Subject
}

func (m *mockMarkGuard) RequireSubjectOwnership(ctx context.Context, claims *models.JWTClaims, subjectID string) (*models.Subject, error) {
	subject, ok := m.ownedSubjects[subjectID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher can only submit marks for an assigned subject")
	}
	return &subject, nil
}

type mockCacheInvalidator struct {
	deleted []string
}

func (m *mockCacheInvalidator) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

func newMarkFixture() (*MarkService, *mockMarkRepo, *mockCacheInvalidator) {
	repo := &mockMarkRepo{}
	students := &mockMarkStudents{students: map[string]models.Student{
		"student-1": {ID: "student-1", RollNo: "101", Name: "Asha Rao"},
	}}
	guard := &mockMarkGuard{ownedSubjects: map[string]models.Subject{
		"subject-1": {ID: "subject-1", Code: "CS101"},
	}}
	cache := &mockCacheInvalidator{}
	svc := NewMarkService(repo, students, guard, cache, nil, nil, nil)
	return svc, repo, cache
}

func TestSubmitCreatesThenUpdates(t *testing.T) {
	svc, _, cache := newMarkFixture()
	claims := &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher}

	receipt, err := svc.Submit(context.Background(), claims, SubmitMarkRequest{StudentID: "student-1", SubjectID: "subject-1", Marks: 85})
	require.NoError(t, err)
	assert.Equal(t, models.MarkStatusCreated, receipt.Status)
	assert.Equal(t, "A+", receipt.Mark.Grade)
	assert.Equal(t, 9.0, receipt.Mark.GradePoints)

	receipt, err = svc.Submit(context.Background(), claims, SubmitMarkRequest{StudentID: "student-1", SubjectID: "subject-1", Marks: 55})
	require.NoError(t, err)
	assert.Equal(t, models.MarkStatusUpdated, receipt.Status)
	assert.Equal(t, "B", receipt.Mark.Grade)
	assert.Equal(t, 55, receipt.Mark.Marks)

	assert.Equal(t, []string{"result:student-1", "result:student-1"}, cache.deleted)
}

func TestSubmitPreservesOriginalAuthor(t *testing.T) {
	svc, repo, _ := newMarkFixture()

	first := &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher}
	_, err := svc.Submit(context.Background(), first, SubmitMarkRequest{StudentID: "student-1", SubjectID: "subject-1", Marks: 70})
	require.NoError(t, err)

	second := &models.JWTClaims{UserID: "teacher-9", Role: models.RoleTeacher}
	receipt, err := svc.Submit(context.Background(), second, SubmitMarkRequest{StudentID: "student-1", SubjectID: "subject-1", Marks: 95})
	require.NoError(t, err)

	assert.Equal(t, models.MarkStatusUpdated, receipt.Status)
	assert.Equal(t, "teacher-1", receipt.Mark.CreatedBy)

	stored, err := repo.FindByStudentAndSubject(context.Background(), "student-1", "subject-1")
	require.NoError(t, err)
	assert.Equal(t, 95, stored.Marks)
	assert.Equal(t, "teacher-1", stored.CreatedBy)
}

func TestSubmitRejectsOutOfRangeMarks(t *testing.T) {
	svc, repo, _ := newMarkFixture()
	claims := &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher}

	for _, marks := range []int{-1, 101, 500} {
		_, err := svc.Submit(context.Background(), claims, SubmitMarkRequest{StudentID: "student-1", SubjectID: "subject-1", Marks: marks})
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code, "marks=%d", marks)
	}
	assert.Empty(t, repo.stored, "nothing persisted on rejection")
}

func TestSubmitBoundaryMarksAccepted(t *testing.T) {
	svc, _, _ := newMarkFixture()
	claims := &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher}

	receipt, err := svc.Submit(context.Background(), claims, SubmitMarkRequest{StudentID: "student-1", SubjectID: "subject-1", Marks: 0})
	require.NoError(t, err)
	assert.Equal(t, "F", receipt.Mark.Grade)

	receipt, err = svc.Submit(context.Background(), claims, SubmitMarkRequest{StudentID: "student-1", SubjectID: "subject-1", Marks: 100})
	require.NoError(t, err)
	assert.Equal(t, "O", receipt.Mark.Grade)
}

func TestSubmitUnownedSubjectForbidden(t *testing.T) {
	svc, repo, _ := newMarkFixture()
	claims := &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher}

	_, err := svc.Submit(context.Background(), claims, SubmitMarkRequest{StudentID: "student-1", SubjectID: "subject-other", Marks: 50})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.stored)
}

func TestSubmitUnknownStudent(t *testing.T) {
	svc, _, _ := newMarkFixture()
	claims := &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher}

	_, err := svc.Submit(context.Background(), claims, SubmitMarkRequest{StudentID: "missing", SubjectID: "subject-1", Marks: 50})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubmitObservesUpsertDuration(t *testing.T) {
	repo := &mockMarkRepo{}
	students := &mockMarkStudents{students: map[string]models.Student{
		"student-1": {ID: "student-1", RollNo: "101", Name: "Asha Rao"},
	}}
	guard := &mockMarkGuard{ownedSubjects: map[string]models.Subject{
		"subject-1": {ID: "subject-1", Code: "CS101"},
	}}
	metrics := NewMetricsService()
	svc := NewMarkService(repo, students, guard, nil, metrics, nil, nil)
	claims := &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher}

	_, err := svc.Submit(context.Background(), claims, SubmitMarkRequest{StudentID: "student-1", SubjectID: "subject-1", Marks: 85})
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(metrics.dbQueryDuration, "db_query_duration_seconds"))
}
