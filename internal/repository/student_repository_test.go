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

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
)

func newStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
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

func TestStudentRepositoryExistsByCodeOrRoll(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_code = $1 OR roll_no = $2")).
		WithArgs("TE001", "101").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByCodeOrRoll(context.Background(), "TE001", "101")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_code = $1 OR roll_no = $2")).
		WithArgs("TE999", "999").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsByCodeOrRoll(context.Background(), "TE999", "999")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStudentRepositoryListWithSearch(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_code", "roll_no", "name", "division", "batch", "elective", "created_at"}).
		AddRow("student-1", "TE001", "101", "Asha Rao", sql.NullString{String: "A", Valid: true}, sql.NullString{}, sql.NullString{}, now)

	mock.ExpectQuery(regexp.QuoteMeta("LOWER(name) LIKE $1")).
		WithArgs("%asha%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("%asha%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Search: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, students, 1)
	assert.Equal(t, "101", students[0].RollNo)
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	student := &models.Student{StudentCode: "TE002", RollNo: "102", Name: "Kiran Patil"}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
}
