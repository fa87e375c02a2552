package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
)

// MarkRepository handles mark persistence. The marks table carries a unique
// constraint on (student_id, subject_id); the upsert relies on it so that two
// racing first submissions for the same pair collapse into a single row.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository creates a new mark repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// FindByStudentAndSubject returns the mark for a (student, subject) pair.
func (r *MarkRepository) FindByStudentAndSubject(ctx context.Context, studentID, subjectID string) (*models.Mark, error) {
	const query = `SELECT id, student_id, subject_id, marks, grade, grade_points, created_by, created_at, updated_at FROM marks WHERE student_id = $1 AND subject_id = $2 LIMIT 1`
	var mark models.Mark
	if err := r.db.GetContext(ctx, &mark, query, studentID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find mark: %w", err)
	}
	return &mark, nil
}

// Upsert inserts or overwrites the mark for (student_id, subject_id) in a
// single statement. On conflict the marks, grade and grade_points columns are
// replaced while created_by keeps the original author. The returned flag is
// true when a new row was inserted.
func (r *MarkRepository) Upsert(ctx context.Context, mark *models.Mark) (bool, error) {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mark.CreatedAt.IsZero() {
		mark.CreatedAt = now
	}
	mark.UpdatedAt = now

	const query = `INSERT INTO marks (id, student_id, subject_id, marks, grade, grade_points, created_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (student_id, subject_id)
        DO UPDATE SET marks = EXCLUDED.marks, grade = EXCLUDED.grade, grade_points = EXCLUDED.grade_points, updated_at = EXCLUDED.updated_at
        RETURNING id, created_by, created_at, (xmax = 0) AS inserted`

	row := r.db.QueryRowxContext(ctx, query,
		mark.ID, mark.StudentID, mark.SubjectID, mark.Marks, mark.Grade, mark.GradePoints, mark.CreatedBy, mark.CreatedAt, mark.UpdatedAt)

	var inserted bool
	if err := row.Scan(&mark.ID, &mark.CreatedBy, &mark.CreatedAt, &inserted); err != nil {
		return false, fmt.Errorf("upsert mark: %w", err)
	}
	return inserted, nil
}

// ListWithSubjectsByStudent returns a student's marks joined with subject
// info, in stable subject-code order.
func (r *MarkRepository) ListWithSubjectsByStudent(ctx context.Context, studentID string) ([]models.MarkWithSubject, error) {
	const query = `SELECT m.id, m.student_id, m.subject_id, m.marks, m.grade, m.grade_points, m.created_by, m.created_at, m.updated_at,
        s.code AS subject_code, s.name AS subject_name, s.credits AS credits
        FROM marks m
        JOIN subjects s ON s.id = m.subject_id
        WHERE m.student_id = $1
        ORDER BY s.code`
	var marks []models.MarkWithSubject
	if err := r.db.SelectContext(ctx, &marks, query, studentID); err != nil {
		return nil, fmt.Errorf("list marks for student: %w", err)
	}
	return marks, nil
}
