package quiz

import (
	"fmt"
	"math"
)

// Band classifies a score for display.
type Band int

const (
	BandLow  Band = iota // below 60%
	BandMid              // 60% to 79%
	BandHigh             // 80% and above
)

// Band thresholds, inclusive on the lower bound of each band.
const (
	HighThreshold = 80
	MidThreshold  = 60
)

func (b Band) String() string {
	switch b {
	case BandHigh:
		return "high"
	case BandMid:
		return "mid"
	default:
		return "low"
	}
}

// MarshalText encodes the band as its name.
func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Band) UnmarshalText(text []byte) error {
	switch string(text) {
	case "high":
		*b = BandHigh
	case "mid":
		*b = BandMid
	case "low":
		*b = BandLow
	default:
		return fmt.Errorf("unknown score band %q", text)
	}
	return nil
}

// Percentage returns score/total as a percentage rounded to the nearest
// integer. A zero total yields 0.
func Percentage(score, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// ScoreBand returns the band for score out of total.
func ScoreBand(score, total int) Band {
	return BandFor(Percentage(score, total))
}

// BandFor returns the band for an already computed percentage.
func BandFor(percentage int) Band {
	switch {
	case percentage >= HighThreshold:
		return BandHigh
	case percentage >= MidThreshold:
		return BandMid
	default:
		return BandLow
	}
}

// CountCorrect counts the questions whose answer in answers equals the
// correct key. Missing answers count as incorrect.
func CountCorrect(questions []Question, answers AnswerMap) int {
	n := 0
	for _, q := range questions {
		if got, ok := answers[q.ID]; ok && got == q.Correct {
			n++
		}
	}
	return n
}
