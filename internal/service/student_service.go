package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
	appErrors "github.com/aryaniscoding/dbms-project-TE/pkg/errors"
	"github.com/aryaniscoding/dbms-project-TE/pkg/export"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByCodeOrRoll(ctx context.Context, studentCode, rollNo string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
}

type rosterCSVRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// CreateStudentRequest represents payload for registering a student profile.
type CreateStudentRequest struct {
	StudentCode string `json:"student_code" validate:"required"`
	RollNo      string `json:"roll_no" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Division    string `json:"division"`
	Batch       string `json:"batch"`
	Elective    string `json:"elective"`
}

// StudentService handles student profile management.
type StudentService struct {
	repo      studentRepository
	csv       rosterCSVRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService creates an instance of StudentService.
func NewStudentService(repo studentRepository, csv rosterCSVRenderer, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentService{repo: repo, csv: csv, validator: validate, logger: logger}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return students, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student profile. student_code and roll_no are unique.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create student payload")
	}

	exists, err := s.repo.ExistsByCodeOrRoll(ctx, req.StudentCode, req.RollNo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student code or roll number already exists")
	}

	student := &models.Student{
		StudentCode: req.StudentCode,
		RollNo:      req.RollNo,
		Name:        req.Name,
	}
	if req.Division != "" {
		division := req.Division
		student.Division = &division
	}
	if req.Batch != "" {
		batch := req.Batch
		student.Batch = &batch
	}
	if req.Elective != "" {
		elective := req.Elective
		student.Elective = &elective
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.logger.Info("student created", zap.String("roll_no", student.RollNo))
	return student, nil
}

// ExportRosterCSV renders the filtered student roster as CSV.
func (s *StudentService) ExportRosterCSV(ctx context.Context, filter models.StudentFilter) ([]byte, error) {
	if s.csv == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "csv export unavailable")
	}

	filter.Page = 1
	filter.PageSize = 100
	var rows []map[string]string
	for {
		students, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
		}
		for _, student := range students {
			rows = append(rows, map[string]string{
				"Student Code": student.StudentCode,
				"Roll No":      student.RollNo,
				"Name":         student.Name,
				"Division":     derefOrEmpty(student.Division),
				"Batch":        derefOrEmpty(student.Batch),
				"Elective":     derefOrEmpty(student.Elective),
			})
		}
		if len(rows) >= total || len(students) == 0 {
			break
		}
		filter.Page++
	}

	data, err := s.csv.Render(export.Dataset{
		Headers: []string{"Student Code", "Roll No", "Name", "Division", "Batch", "Elective"},
		Rows:    rows,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster csv")
	}
	return data, nil
}

func derefOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
