package schedule

import (
	"github.com/Pandoravox1/attendify-sub000/internal/models"
)

// Placement positions one entry of a day column. Overlapping entries share
// the column width: Lane is the entry's slot, Lanes the slot count of its
// overlap group.
type Placement struct {
	Entry models.ScheduleEntry
	Box   Box
	Lane  int
	Lanes int
}

// Lanes places the entries of a single day. Entries are taken in start
// order and each goes into the first lane that is free by its start time.
func (g Grid) Lanes(entries []models.ScheduleEntry) []Placement {
	es := append([]models.ScheduleEntry(nil), entries...)
	sortByStart(es)

	out := make([]Placement, 0, len(es))
	var laneEnds []int // end minute of the last entry in each lane
	groupStart, groupEnd := 0, -1

	closeGroup := func(upto int) {
		n := 0
		for i := groupStart; i < upto; i++ {
			if out[i].Lane+1 > n {
				n = out[i].Lane + 1
			}
		}
		for i := groupStart; i < upto; i++ {
			out[i].Lanes = n
		}
	}

	for _, e := range es {
		start, _ := ParseClock(e.StartTime)
		end, ok := ParseClock(e.EndTime)
		if !ok || end < start {
			end = start
		}
		if start >= groupEnd && len(out) > 0 {
			closeGroup(len(out))
			groupStart = len(out)
			laneEnds = laneEnds[:0]
		}
		lane := -1
		for i, le := range laneEnds {
			if le <= start {
				lane = i
				break
			}
		}
		if lane < 0 {
			lane = len(laneEnds)
			laneEnds = append(laneEnds, end)
		} else {
			laneEnds[lane] = end
		}
		if end > groupEnd {
			groupEnd = end
		}
		out = append(out, Placement{Entry: e, Box: g.Place(e), Lane: lane})
	}
	if len(out) > 0 {
		closeGroup(len(out))
	}
	return out
}
