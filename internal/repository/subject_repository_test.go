package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubjectRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
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

func TestSubjectRepositoryListByTeacher(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "code", "name", "credits", "teacher_id", "created_at"}).
		AddRow("subject-1", "CS101", "Programming Fundamentals", 4, sql.NullString{String: "teacher-1", Valid: true}, now).
		AddRow("subject-2", "MA101", "Mathematics I", 4, sql.NullString{String: "teacher-1", Valid: true}, now)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE teacher_id = $1 ORDER BY code")).
		WithArgs("teacher-1").
		WillReturnRows(rows)

	subjects, err := repo.ListByTeacher(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "CS101", subjects[0].Code)
	require.NotNil(t, subjects[0].TeacherID)
	assert.Equal(t, "teacher-1", *subjects[0].TeacherID)
}

func TestSubjectRepositoryExistsByCode(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LOWER(code) = LOWER($1)")).
		WithArgs("cs101").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByCode(context.Background(), "cs101")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("LOWER(code) = LOWER($1)")).
		WithArgs("zz999").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsByCode(context.Background(), "zz999")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSubjectRepositoryAssignTeacher(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE subjects SET teacher_id = $2 WHERE id = $1")).
		WithArgs("subject-1", "teacher-9").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AssignTeacher(context.Background(), "subject-1", "teacher-9")
	require.NoError(t, err)
}
