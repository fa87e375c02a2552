package models

// ResultLine is a single subject row within a student's result view.
type ResultLine struct {
	SubjectCode string  `json:"subject_code"`
	SubjectName string  `json:"subject_name"`
	Marks       int     `json:"marks"`
	Grade       string  `json:"grade"`
	GradePoints float64 `json:"grade_points"`
}

// ResultView is a student's aggregated result. A student with no marks yet is
// a valid state: empty Marks and CGPA 0.0.
type ResultView struct {
	Student Student      `json:"student"`
	Marks   []ResultLine `json:"marks"`
	CGPA    float64      `json:"cgpa"`
}
