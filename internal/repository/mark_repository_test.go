package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
)

func newMarkRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestMarkRepositoryUpsertInserts(t *testing.T) {
	db, mock, cleanup := newMarkRepoMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "created_by", "created_at", "inserted"}).
		AddRow("mark-1", "teacher-1", createdAt, true)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO marks")).
		WithArgs(sqlmock.AnyArg(), "student-1", "subject-1", 88, "A+", 9.0, "teacher-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	mark := &models.Mark{
		StudentID:   "student-1",
		SubjectID:   "subject-1",
		Marks:       88,
		Grade:       "A+",
		GradePoints: 9.0,
		CreatedBy:   "teacher-1",
	}

	inserted, err := repo.Upsert(context.Background(), mark)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "mark-1", mark.ID)
	assert.Equal(t, "teacher-1", mark.CreatedBy)
	assert.Equal(t, createdAt, mark.CreatedAt)
}

func TestMarkRepositoryUpsertOverwriteKeepsCreator(t *testing.T) {
	db, mock, cleanup := newMarkRepoMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "created_by", "created_at", "inserted"}).
		AddRow("mark-1", "teacher-original", createdAt, false)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO marks")).
		WithArgs(sqlmock.AnyArg(), "student-1", "subject-1", 42, "C", 5.0, "teacher-2", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	mark := &models.Mark{
		StudentID:   "student-1",
		SubjectID:   "subject-1",
		Marks:       42,
		Grade:       "C",
		GradePoints: 5.0,
		CreatedBy:   "teacher-2",
	}

	inserted, err := repo.Upsert(context.Background(), mark)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, "mark-1", mark.ID)
	assert.Equal(t, "teacher-original", mark.CreatedBy, "original author survives overwrite")
}

func TestMarkRepositoryListWithSubjectsByStudent(t *testing.T) {
	db, mock, cleanup := newMarkRepoMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_id", "subject_id", "marks", "grade", "grade_points", "created_by", "created_at", "updated_at", "subject_code", "subject_name", "credits"}).
		AddRow("mark-1", "student-1", "subject-1", 91, "O", 10.0, "teacher-1", now, now, "CS101", "Programming Fundamentals", 4).
		AddRow("mark-2", "student-1", "subject-2", 64, "B+", 7.0, "teacher-2", now, now, "MA101", "Mathematics I", 4)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN subjects s ON s.id = m.subject_id")).
		WithArgs("student-1").
		WillReturnRows(rows)

	marks, err := repo.ListWithSubjectsByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, marks, 2)
	assert.Equal(t, "CS101", marks[0].SubjectCode)
	assert.Equal(t, 10.0, marks[0].GradePoints)
	assert.Equal(t, "MA101", marks[1].SubjectCode)
}

func TestMarkRepositoryFindByStudentAndSubjectNone(t *testing.T) {
	db, mock, cleanup := newMarkRepoMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, subject_id")).
		WithArgs("student-1", "subject-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByStudentAndSubject(context.Background(), "student-1", "subject-1")
	assert.Error(t, err)
}
