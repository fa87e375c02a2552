package models

import "time"

// Student represents a learner's academic profile.
type Student struct {
	ID          string    `db:"id" json:"id"`
	StudentCode string    `db:"student_code" json:"student_code"`
	RollNo      string    `db:"roll_no" json:"roll_no"`
	Name        string    `db:"name" json:"name"`
	Division    *string   `db:"division" json:"division,omitempty"`
	Batch       *string   `db:"batch" json:"batch,omitempty"`
	Elective    *string   `db:"elective" json:"elective,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Division  string
	Batch     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
