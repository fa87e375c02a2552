package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
	appErrors "github.com/aryaniscoding/dbms-project-TE/pkg/errors"
)

type guardSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type guardUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AccessService centralises authorization checks: role membership, teacher
// ownership of a subject and student self-access. Authentication happens
// before any of these run; the claims passed in are an already-verified
// principal.
type AccessService struct {
	subjects guardSubjectReader
	users    guardUserReader
}

// NewAccessService constructs an AccessService.
func NewAccessService(subjects guardSubjectReader, users guardUserReader) *AccessService {
	return &AccessService{subjects: subjects, users: users}
}

// RequireRole fails with Forbidden unless the principal holds the role.
func (s *AccessService) RequireRole(claims *models.JWTClaims, role models.UserRole) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role != role {
		return appErrors.Clone(appErrors.ErrForbidden, "insufficient role")
	}
	return nil
}

// RequireSubjectOwnership verifies that the acting teacher is assigned to the
// requested subject. Ownership is always checked against the subject id, so a
// teacher may own any number of subjects.
func (s *AccessService) RequireSubjectOwnership(ctx context.Context, claims *models.JWTClaims, subjectID string) (*models.Subject, error) {
	if err := s.RequireRole(claims, models.RoleTeacher); err != nil {
		return nil, err
	}

	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	if subject.TeacherID == nil || *subject.TeacherID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher can only submit marks for an assigned subject")
	}

	return subject, nil
}

// RequireSelfStudent resolves the student profile linked to the principal.
// Fails with NotFound when the account has no linked profile.
func (s *AccessService) RequireSelfStudent(ctx context.Context, claims *models.JWTClaims) (string, error) {
	if err := s.RequireRole(claims, models.RoleStudent); err != nil {
		return "", err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "no student profile")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.StudentID == nil || *user.StudentID == "" {
		return "", appErrors.Clone(appErrors.ErrNotFound, "no student profile")
	}

	return *user.StudentID, nil
}
