package grading

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Score is the outcome of parsing one raw score value.
type Score struct {
	Value   float64
	OK      bool // the input held a finite number
	Clamped bool // the number was outside [MinScore, MaxScore]
}

// Or returns the parsed value, or def when the input was not a number.
func (s Score) Or(def float64) float64 {
	if !s.OK {
		return def
	}
	return s.Value
}

// ParseScore reads a score out of whatever a spreadsheet cell or a JSON
// document produced. Non-numeric input yields OK=false and Value=0.
func ParseScore(v any) Score {
	var f float64
	switch x := v.(type) {
	case nil:
		return Score{}
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return Score{}
		}
		f = p
	case string:
		p, ok := parseNumber(x)
		if !ok {
			return Score{}
		}
		f = p
	default:
		return Score{}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Score{}
	}
	out := Score{Value: f, OK: true}
	if f < MinScore {
		out.Value, out.Clamped = MinScore, true
	} else if f > MaxScore {
		out.Value, out.Clamped = MaxScore, true
	}
	return out
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	// "85,5" as typed in id-ID spreadsheets
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ScoresFromRaw converts a decoded JSON score map. Values that are not
// numbers become 0.
func ScoresFromRaw(raw map[string]any) map[string]float64 {
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		out[k] = ParseScore(v).Or(0)
	}
	return out
}
