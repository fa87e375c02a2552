package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
)

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
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

func TestUserRepositoryFindByUsername(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "full_name", "role", "student_id", "created_at"}).
		AddRow("user-1", "admin", sql.NullString{String: "admin@example.com", Valid: true}, "hash", "Admin", "ADMIN", sql.NullString{}, now)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE username = $1")).
		WithArgs("admin").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Nil(t, user.StudentID)
}

func TestUserRepositoryFindByUsernameMissing(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE username = $1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByUsername(context.Background(), "ghost")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestUserRepositoryListFiltersByRole(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "full_name", "role", "student_id", "created_at"}).
		AddRow("user-2", "teacher_cs", sql.NullString{}, "hash", "Teacher CS", "TEACHER", sql.NullString{}, now)

	mock.ExpectQuery(regexp.QuoteMeta("role = $1")).
		WithArgs(models.RoleTeacher).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(models.RoleTeacher).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	role := models.RoleTeacher
	users, total, err := repo.List(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "teacher_cs", users[0].Username)
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{
		Username:     "s101",
		FullName:     "Some Student",
		Role:         models.RoleStudent,
		PasswordHash: "hash",
	}
	err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
}
