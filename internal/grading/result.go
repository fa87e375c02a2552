package grading

import (
	"math"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
)

// ComputeResult combines a student's marks into a result view with CGPA.
// Input order is preserved in the output. An empty marks slice yields CGPA
// 0.0 and an empty (non-nil) marks list.
func ComputeResult(student models.Student, marks []models.MarkWithSubject) models.ResultView {
	lines := make([]models.ResultLine, 0, len(marks))
	total := 0.0
	for _, m := range marks {
		lines = append(lines, models.ResultLine{
			SubjectCode: m.SubjectCode,
			SubjectName: m.SubjectName,
			Marks:       m.Marks,
			Grade:       m.Grade,
			GradePoints: m.GradePoints,
		})
		total += m.GradePoints
	}

	cgpa := 0.0
	if len(marks) > 0 {
		cgpa = round2(total / float64(len(marks)))
	}

	return models.ResultView{Student: student, Marks: lines, CGPA: cgpa}
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
