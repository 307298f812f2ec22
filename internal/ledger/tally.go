package ledger

import (
	"math"

	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

// Tally counts statuses over a set of records.
type Tally struct {
	Counts map[models.Status]int
	Set    int // records with a status
}

func Count(recs []models.AttendanceRecord) Tally {
	t := Tally{Counts: make(map[models.Status]int, len(models.Statuses))}
	for _, r := range recs {
		if r.Status == models.StatusUnset {
			continue
		}
		t.Counts[r.Status]++
		t.Set++
	}
	return t
}

// Rate is the share of set records that are Present or Late, as a whole
// percentage. ok is false when nothing is set.
func (t Tally) Rate() (pct int, ok bool) {
	if t.Set == 0 {
		return 0, false
	}
	attended := t.Counts[models.StatusPresent] + t.Counts[models.StatusLate]
	return int(math.Round(float64(attended) * 100 / float64(t.Set))), true
}

// CountHistory tallies one date's cache.
func CountHistory(h History) Tally {
	recs := make([]models.AttendanceRecord, 0, len(h))
	for id, e := range h {
		recs = append(recs, models.AttendanceRecord{StudentID: id, Status: e.Status})
	}
	return Count(recs)
}
