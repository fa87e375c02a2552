package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
)

// SubjectRepository handles persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects matching filters with pagination metadata.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	base := "FROM subjects WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "code"
	}
	allowedSorts := map[string]bool{
		"code":       true,
		"name":       true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "code"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, code, name, credits, teacher_id, created_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	return subjects, total, nil
}

// FindByID returns a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, code, name, credits, teacher_id, created_at FROM subjects WHERE id = $1 LIMIT 1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject by id: %w", err)
	}
	return &subject, nil
}

// ListByTeacher returns subjects assigned to the given teacher.
func (r *SubjectRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Subject, error) {
	const query = `SELECT id, code, name, credits, teacher_id, created_at FROM subjects WHERE teacher_id = $1 ORDER BY code`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, teacherID); err != nil {
		return nil, fmt.Errorf("list subjects by teacher: %w", err)
	}
	return subjects, nil
}

// ExistsByCode checks uniqueness of subject code.
func (r *SubjectRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	const query = `SELECT 1 FROM subjects WHERE LOWER(code) = LOWER($1) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check subject code: %w", err)
	}
	return true, nil
}

// Create persists a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO subjects (id, code, name, credits, teacher_id, created_at) VALUES (:id, :code, :name, :credits, :teacher_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// AssignTeacher sets the teacher for a subject.
func (r *SubjectRepository) AssignTeacher(ctx context.Context, subjectID, teacherID string) error {
	const query = `UPDATE subjects SET teacher_id = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, subjectID, teacherID); err != nil {
		return fmt.Errorf("assign teacher: %w", err)
	}
	return nil
}
