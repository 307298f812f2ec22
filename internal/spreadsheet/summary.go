package spreadsheet

import (
	"fmt"
	"strings"
)

type Summary struct {
	Accepted   int
	Blank      int
	Incomplete int
	Duplicate  int
	NotFound   int
	Clamped    int // cells pulled into [0,100]
}

func (s *Summary) add(o Outcome) {
	switch o {
	case Accepted:
		s.Accepted++
	case SkippedBlank:
		s.Blank++
	case SkippedIncomplete:
		s.Incomplete++
	case SkippedDuplicate:
		s.Duplicate++
	case SkippedNotFound:
		s.NotFound++
	}
}

// Skipped counts rows that had content but were not taken.
func (s Summary) Skipped() int { return s.Incomplete + s.Duplicate + s.NotFound }

// Message renders the summary shown after an import. verb is "imported" or
// "updated". Clamped cells were written, so they get their own clause.
func (s Summary) Message(verb string) string {
	head := fmt.Sprintf("%d %s", s.Accepted, verb)
	if s.Clamped > 0 {
		head += fmt.Sprintf(", %d score(s) clamped to 0-100", s.Clamped)
	}
	var skipped []string
	if s.Duplicate > 0 {
		skipped = append(skipped, fmt.Sprintf("%d duplicate", s.Duplicate))
	}
	if s.Incomplete > 0 {
		skipped = append(skipped, fmt.Sprintf("%d incomplete", s.Incomplete))
	}
	if s.NotFound > 0 {
		skipped = append(skipped, fmt.Sprintf("%d not found", s.NotFound))
	}
	if len(skipped) == 0 {
		return head + "."
	}
	return head + "; skipped " + strings.Join(skipped, ", ") + "."
}
