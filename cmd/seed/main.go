package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/aryaniscoding/dbms-project-TE/internal/grading"
	"github.com/aryaniscoding/dbms-project-TE/internal/models"
	"github.com/aryaniscoding/dbms-project-TE/internal/repository"
	"github.com/aryaniscoding/dbms-project-TE/internal/service"
	"github.com/aryaniscoding/dbms-project-TE/pkg/config"
	"github.com/aryaniscoding/dbms-project-TE/pkg/database"
	"github.com/aryaniscoding/dbms-project-TE/pkg/logger"
)

var subjects = []struct {
	Code    string
	Name    string
	Credits int
}{
	{"CS101", "Programming Fundamentals", 4},
	{"MA101", "Mathematics I", 4},
	{"PH101", "Physics", 4},
	{"CH101", "Chemistry", 4},
	{"EN101", "English", 4},
}

var teachers = []struct {
	Username string
	FullName string
	Email    string
}{
	{"teacher_cs", "Teacher CS", "cs@example.com"},
	{"teacher_ma", "Teacher MA", "ma@example.com"},
	{"teacher_ph", "Teacher PH", "ph@example.com"},
	{"teacher_ch", "Teacher CH", "ch@example.com"},
	{"teacher_en", "Teacher EN", "en@example.com"},
}

type seeder struct {
	users       *repository.UserRepository
	students    *repository.StudentRepository
	subjects    *repository.SubjectRepository
	enrollments *repository.EnrollmentRepository
	marks       *repository.MarkRepository
	logr        *zap.Logger
}

func main() {
	studentCSV := flag.String("students", "student_data.csv", "path to the student roster CSV")
	withMarks := flag.Bool("marks", false, "also seed random marks for every enrollment")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	s := &seeder{
		users:       repository.NewUserRepository(db),
		students:    repository.NewStudentRepository(db),
		subjects:    repository.NewSubjectRepository(db),
		enrollments: repository.NewEnrollmentRepository(db),
		marks:       repository.NewMarkRepository(db),
		logr:        logr,
	}

	ctx := context.Background()

	if err := s.ensureAdmin(ctx); err != nil {
		logr.Sugar().Fatalw("seeding admin failed", "error", err)
	}
	if err := s.seedSubjectsAndTeachers(ctx); err != nil {
		logr.Sugar().Fatalw("seeding subjects failed", "error", err)
	}
	if err := s.seedStudents(ctx, *studentCSV); err != nil {
		logr.Sugar().Fatalw("seeding students failed", "error", err)
	}
	if err := s.enrollAll(ctx); err != nil {
		logr.Sugar().Fatalw("seeding enrollments failed", "error", err)
	}
	if *withMarks {
		if err := s.seedRandomMarks(ctx); err != nil {
			logr.Sugar().Fatalw("seeding marks failed", "error", err)
		}
	}

	logr.Sugar().Infow("seeding complete", "students_csv", *studentCSV)
}

func (s *seeder) ensureAdmin(ctx context.Context) error {
	if _, err := s.users.FindByUsername(ctx, "admin"); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	hash, err := service.HashPassword("admin123")
	if err != nil {
		return err
	}
	email := "admin@example.com"
	return s.users.Create(ctx, &models.User{
		Username:     "admin",
		FullName:     "Admin",
		Email:        &email,
		Role:         models.RoleAdmin,
		PasswordHash: hash,
	})
}

func (s *seeder) seedSubjectsAndTeachers(ctx context.Context) error {
	for i, subj := range subjects {
		exists, err := s.subjects.ExistsByCode(ctx, subj.Code)
		if err != nil {
			return err
		}
		if !exists {
			if err := s.subjects.Create(ctx, &models.Subject{Code: subj.Code, Name: subj.Name, Credits: subj.Credits}); err != nil {
				return err
			}
		}

		if i >= len(teachers) {
			continue
		}
		t := teachers[i]
		teacher, err := s.users.FindByUsername(ctx, t.Username)
		if errors.Is(err, sql.ErrNoRows) {
			hash, hashErr := service.HashPassword("teacher123")
			if hashErr != nil {
				return hashErr
			}
			email := t.Email
			teacher = &models.User{
				Username:     t.Username,
				FullName:     t.FullName,
				Email:        &email,
				Role:         models.RoleTeacher,
				PasswordHash: hash,
			}
			if err := s.users.Create(ctx, teacher); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		subject, err := s.findSubjectByCode(ctx, subj.Code)
		if err != nil {
			return err
		}
		if err := s.subjects.AssignTeacher(ctx, subject.ID, teacher.ID); err != nil {
			return err
		}
	}
	return nil
}

// readRoster parses the student roster CSV. Rows with a wrong field count or
// a blank required value are skipped; any other read error aborts the parse.
func readRoster(r io.Reader) ([]models.Student, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Student_Code", "Roll_No", "Name"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("roster csv missing column %s", required)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var roster []models.Student
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read roster csv: %w", err)
		}

		code := field(record, "Student_Code")
		roll := field(record, "Roll_No")
		name := strings.Trim(field(record, "Name"), `"`)
		if code == "" || roll == "" || name == "" {
			continue
		}

		student := models.Student{StudentCode: code, RollNo: roll, Name: name}
		if v := field(record, "Division_ID"); v != "" {
			student.Division = &v
		}
		if v := field(record, "Batch"); v != "" {
			student.Batch = &v
		}
		if v := field(record, "Elective"); v != "" {
			student.Elective = &v
		}
		roster = append(roster, student)
	}
	return roster, nil
}

func (s *seeder) seedStudents(ctx context.Context, csvPath string) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open roster csv: %w", err)
	}
	defer f.Close()

	roster, err := readRoster(f)
	if err != nil {
		return err
	}

	for _, row := range roster {
		exists, err := s.students.ExistsByCodeOrRoll(ctx, row.StudentCode, row.RollNo)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		student := &row
		if err := s.students.Create(ctx, student); err != nil {
			return err
		}

		username := "s" + row.RollNo
		if _, err := s.users.FindByUsername(ctx, username); errors.Is(err, sql.ErrNoRows) {
			hash, hashErr := service.HashPassword("student123")
			if hashErr != nil {
				return hashErr
			}
			studentID := student.ID
			if err := s.users.Create(ctx, &models.User{
				Username:     username,
				FullName:     row.Name,
				Role:         models.RoleStudent,
				PasswordHash: hash,
				StudentID:    &studentID,
			}); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) enrollAll(ctx context.Context) error {
	allSubjects, err := s.listAllSubjects(ctx)
	if err != nil {
		return err
	}
	allStudents, err := s.listAllStudents(ctx)
	if err != nil {
		return err
	}

	for _, student := range allStudents {
		for _, subject := range allSubjects {
			enrolled, err := s.enrollments.Exists(ctx, student.ID, subject.ID)
			if err != nil {
				return err
			}
			if enrolled {
				continue
			}
			if err := s.enrollments.Create(ctx, &models.Enrollment{StudentID: student.ID, SubjectID: subject.ID}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *seeder) seedRandomMarks(ctx context.Context) error {
	allSubjects, err := s.listAllSubjects(ctx)
	if err != nil {
		return err
	}
	allStudents, err := s.listAllStudents(ctx)
	if err != nil {
		return err
	}

	admin, err := s.users.FindByUsername(ctx, "admin")
	if err != nil {
		return err
	}

	for _, student := range allStudents {
		for _, subject := range allSubjects {
			if _, err := s.marks.FindByStudentAndSubject(ctx, student.ID, subject.ID); err == nil {
				continue
			} else if !errors.Is(err, sql.ErrNoRows) {
				return err
			}

			marksVal := 35 + rand.Intn(66)
			grade := grading.FromMarks(marksVal)
			createdBy := admin.ID
			if subject.TeacherID != nil {
				createdBy = *subject.TeacherID
			}
			mark := &models.Mark{
				StudentID:   student.ID,
				SubjectID:   subject.ID,
				Marks:       marksVal,
				Grade:       grade.Letter,
				GradePoints: grade.Points,
				CreatedBy:   createdBy,
			}
			if _, err := s.marks.Upsert(ctx, mark); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *seeder) findSubjectByCode(ctx context.Context, code string) (*models.Subject, error) {
	allSubjects, err := s.listAllSubjects(ctx)
	if err != nil {
		return nil, err
	}
	for i := range allSubjects {
		if allSubjects[i].Code == code {
			return &allSubjects[i], nil
		}
	}
	return nil, fmt.Errorf("subject %s not found after create", code)
}

func (s *seeder) listAllSubjects(ctx context.Context) ([]models.Subject, error) {
	subjectsList, _, err := s.subjects.List(ctx, models.SubjectFilter{Page: 1, PageSize: 1000})
	return subjectsList, err
}

func (s *seeder) listAllStudents(ctx context.Context) ([]models.Student, error) {
	var out []models.Student
	filter := models.StudentFilter{Page: 1, PageSize: 500}
	for {
		batch, total, err := s.students.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(out) >= total || len(batch) == 0 {
			return out, nil
		}
		filter.Page++
	}
}
