package grading

import (
	"strings"

	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

var attitudeScores = map[models.Attitude]int{
	models.AttitudeEE:  3,
	models.AttitudeME:  2,
	models.AttitudeDME: 1,
}

// AttitudeScore maps a rating to 3/2/1; anything else is 0.
func AttitudeScore(a models.Attitude) int {
	return attitudeScores[a]
}

// AttitudeLabel maps a mean score back to a rating.
func AttitudeLabel(mean float64) models.Attitude {
	switch {
	case mean >= 2.5:
		return models.AttitudeEE
	case mean >= 1.5:
		return models.AttitudeME
	default:
		return models.AttitudeDME
	}
}

// ParseAttitude accepts the short codes and their spelled-out forms.
func ParseAttitude(s string) (models.Attitude, bool) {
	k := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	switch k {
	case "EE", "EXCEEDS EXPECTATIONS":
		return models.AttitudeEE, true
	case "ME", "MEETS EXPECTATIONS":
		return models.AttitudeME, true
	case "DME", "DOES NOT MEET EXPECTATIONS":
		return models.AttitudeDME, true
	}
	return "", false
}

type AttitudeSummary struct {
	Mean  float64
	Rated int
	Total int
	Label models.Attitude // empty when nobody is rated
}

// ClassAttitude averages the rated students only. Unrated students are
// counted in Total but do not pull the mean down.
func ClassAttitude(ratings []models.Attitude) AttitudeSummary {
	out := AttitudeSummary{Total: len(ratings)}
	sum := 0
	for _, r := range ratings {
		if v := AttitudeScore(r); v > 0 {
			sum += v
			out.Rated++
		}
	}
	if out.Rated == 0 {
		return out
	}
	out.Mean = float64(sum) / float64(out.Rated)
	out.Label = AttitudeLabel(out.Mean)
	return out
}
