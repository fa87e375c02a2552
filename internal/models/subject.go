package models

import "time"

// Subject represents an academic subject, optionally assigned to a teacher.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Credits   int       `db:"credits" json:"credits"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Search    string
	TeacherID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
