package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
)

// EnrollmentRepository handles persistence of student-subject enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Exists reports whether the (student, subject) pair is already enrolled.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND subject_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Create inserts an enrollment pair.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (student_id, subject_id, created_at) VALUES (:student_id, :subject_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// List returns enrollment detail rows filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	base := `SELECT e.student_id, e.subject_id, e.created_at,
        st.name AS student_name, st.roll_no AS roll_no,
        s.code AS subject_code, s.name AS subject_name
        FROM enrollments e
        JOIN students st ON st.id = e.student_id
        JOIN subjects s ON s.id = e.subject_id
        WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("e.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	query := base
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY st.roll_no, s.code"

	var details []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return details, nil
}
