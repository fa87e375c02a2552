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

// StudentRepository handles persistence of student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new repository instance.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, student_code, roll_no, name, division, batch, elective, created_at FROM students WHERE id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// ExistsByCodeOrRoll checks uniqueness of student_code and roll_no.
func (r *StudentRepository) ExistsByCodeOrRoll(ctx context.Context, studentCode, rollNo string) (bool, error) {
	const query = `SELECT 1 FROM students WHERE student_code = $1 OR roll_no = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentCode, rollNo); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student uniqueness: %w", err)
	}
	return true, nil
}

// List returns students matching filters with pagination metadata.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Division != "" {
		conditions = append(conditions, fmt.Sprintf("division = $%d", len(args)+1))
		args = append(args, filter.Division)
	}
	if filter.Batch != "" {
		conditions = append(conditions, fmt.Sprintf("batch = $%d", len(args)+1))
		args = append(args, filter.Batch)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(roll_no) LIKE $%d OR LOWER(student_code) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "roll_no"
	}
	allowedSorts := map[string]bool{
		"roll_no":      true,
		"student_code": true,
		"name":         true,
		"created_at":   true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "roll_no"
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

	query := fmt.Sprintf("SELECT id, student_code, roll_no, name, division, batch, elective, created_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	return students, total, nil
}

// Create persists a new student profile.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO students (id, student_code, roll_no, name, division, batch, elective, created_at) VALUES (:id, :student_code, :roll_no, :name, :division, :batch, :elective, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}
