package models

import "time"

// Mark submission outcomes reported by the upsert.
const (
	MarkStatusCreated = "created"
	MarkStatusUpdated = "updated"
)

// Mark stores a student's marks for a subject together with the derived
// grade. Exactly one row exists per (student_id, subject_id); re-grading
// overwrites the row in place and keeps created_by from the first submission.
type Mark struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	Marks       int       `db:"marks" json:"marks"`
	Grade       string    `db:"grade" json:"grade"`
	GradePoints float64   `db:"grade_points" json:"grade_points"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// MarkWithSubject pairs a mark row with its subject for result views.
type MarkWithSubject struct {
	Mark
	SubjectCode string `db:"subject_code" json:"subject_code"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	Credits     int    `db:"credits" json:"credits"`
}

// MarkReceipt reports the outcome of a mark submission.
type MarkReceipt struct {
	Status string `json:"status"`
	Mark   *Mark  `json:"mark"`
}
