package grading

import (
	"math"

	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

// Result is a student's grade average. HasScores=false means nothing was
// graded yet and must not be shown as a zero grade.
type Result struct {
	Average   int
	HasScores bool
}

// Average computes the mean over the class's assessment types. A score of
// exactly zero is left out unless counted marks that type as counted.
func Average(scores map[string]float64, types []string, counted map[string]bool) Result {
	var sum float64
	n := 0
	for _, t := range types {
		v := scores[t]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		if v == 0 && !counted[t] {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return Result{}
	}
	// math.Round rounds half away from zero
	return Result{Average: int(math.Round(sum / float64(n))), HasScores: true}
}

func StudentAverage(s models.Student, c models.Class) Result {
	return Average(s.Scores, c.AssessmentTypes, s.ZeroCounted)
}
