package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
	appErrors "github.com/aryaniscoding/dbms-project-TE/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type userStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// CreateUserRequest represents payload for creating accounts.
type CreateUserRequest struct {
	Username  string          `json:"username" validate:"required,min=3"`
	Password  string          `json:"password" validate:"required,min=6"`
	Role      models.UserRole `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT"`
	FullName  string          `json:"full_name"`
	Email     string          `json:"email" validate:"omitempty,email"`
	StudentID string          `json:"student_id"`
}

// UserService handles account management workflows.
type UserService struct {
	repo      userRepository
	students  userStudentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, students userStudentReader, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Create adds a new account. Student accounts must link an existing student
// profile; usernames and emails are unique.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	if req.Role == models.RoleStudent && req.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id required for student role")
	}

	if _, err := s.repo.FindByUsername(ctx, req.Username); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username uniqueness")
	}

	if req.Email != "" {
		if _, err := s.repo.FindByEmail(ctx, strings.ToLower(req.Email)); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
		}
	}

	user := &models.User{
		Username: req.Username,
		FullName: req.FullName,
		Role:     req.Role,
	}

	if req.Email != "" {
		email := strings.ToLower(req.Email)
		user.Email = &email
	}

	if req.Role == models.RoleStudent {
		if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "linked student not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load linked student")
		}
		studentID := req.StudentID
		user.StudentID = &studentID
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user.PasswordHash = passwordHash

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user created", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return user, nil
}
