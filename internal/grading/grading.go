// Package grading holds the pure grade computation and result aggregation
// logic. Nothing in this package touches storage.
package grading

// Grade is a letter grade with its grade point value.
type Grade struct {
	Letter string  `json:"letter"`
	Points float64 `json:"points"`
}

type band struct {
	minMarks int
	grade    Grade
}

// Bands are evaluated top-down; first match wins. Anything below 40 is a fail.
var bands = []band{
	{90, Grade{"O", 10.0}},
	{80, Grade{"A+", 9.0}},
	{70, Grade{"A", 8.0}},
	{60, Grade{"B+", 7.0}},
	{50, Grade{"B", 6.0}},
	{40, Grade{"C", 5.0}},
}

var failGrade = Grade{"F", 0.0}

// FromMarks maps marks to a letter grade and grade points. It is total over
// all integers; callers are expected to have validated the 0-100 range
// beforehand.
func FromMarks(marks int) Grade {
	for _, b := range bands {
		if marks >= b.minMarks {
			return b.grade
		}
	}
	return failGrade
}

// ValidMarks reports whether marks fall within the accepted 0-100 range.
func ValidMarks(marks int) bool {
	return marks >= 0 && marks <= 100
}
