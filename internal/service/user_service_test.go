package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
	appErrors "github.com/aryaniscoding/dbms-project-TE/pkg/errors"
)

type mockUserRepo struct {
	byUsername map[string]models.User
	byEmail    map[string]models.User
	created    []models.User
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.byUsername {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := m.byUsername[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "user-new"
	if m.byUsername == nil {
		m.byUsername = make(map[string]models.User)
	}
	m.byUsername[user.Username] = *user
	m.created = append(m.created, *user)
	return nil
}

type mockUserStudents struct {
	students map[string]models.Student
}

func (m *mockUserStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

func newUserFixture() (*UserService, *mockUserRepo) {
	repo := &mockUserRepo{
		byUsername: map[string]models.User{
			"admin": {ID: "user-1", Username: "admin", Role: models.RoleAdmin},
		},
		byEmail: map[string]models.User{
			"admin@example.com": {ID: "user-1", Username: "admin", Role: models.RoleAdmin},
		},
	}
	students := &mockUserStudents{students: map[string]models.Student{
		"student-1": {ID: "student-1", RollNo: "101"},
	}}
	return NewUserService(repo, students, nil, nil), repo
}

func TestCreateUserStudentRequiresProfile(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "s101",
		Password: "student123",
		Role:     models.RoleStudent,
	})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), CreateUserRequest{
		Username:  "s101",
		Password:  "student123",
		Role:      models.RoleStudent,
		StudentID: "missing",
	})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateUserStudentLinked(t *testing.T) {
	svc, repo := newUserFixture()

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Username:  "s101",
		Password:  "student123",
		FullName:  "Asha Rao",
		Role:      models.RoleStudent,
		StudentID: "student-1",
	})
	require.NoError(t, err)
	require.NotNil(t, user.StudentID)
	assert.Equal(t, "student-1", *user.StudentID)
	require.Len(t, repo.created, 1)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created[0].PasswordHash), []byte("student123")))
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "admin",
		Password: "whatever1",
		Role:     models.RoleAdmin,
	})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "admin2",
		Password: "whatever1",
		Role:     models.RoleAdmin,
		Email:    "Admin@Example.com",
	})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateTeacherWithoutStudentID(t *testing.T) {
	svc, _ := newUserFixture()

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "teacher_cs",
		Password: "teacher123",
		FullName: "Teacher CS",
		Role:     models.RoleTeacher,
	})
	require.NoError(t, err)
	assert.Nil(t, user.StudentID)
	assert.Equal(t, models.RoleTeacher, user.Role)
}
