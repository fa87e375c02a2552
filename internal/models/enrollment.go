package models

import "time"

// Enrollment associates a student with a subject. The pair is unique; the
// association carries no payload of its own.
type Enrollment struct {
	StudentID string    `db:"student_id" json:"student_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentDetail enriches Enrollment with student and subject info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	RollNo      string `db:"roll_no" json:"roll_no"`
	SubjectCode string `db:"subject_code" json:"subject_code"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	SubjectID string
}
