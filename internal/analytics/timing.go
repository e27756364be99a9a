package analytics

import "math"

const (
	// DefaultIdealTime is used when a question has no expected solve time.
	DefaultIdealTime = 60

	SlowFactor  = 1.5
	QuickFactor = 0.5
)

// Pace classifies time taken against the ideal time.
type Pace string

const (
	PaceSlow   Pace = "slow"
	PaceQuick  Pace = "quick"
	PaceOnTime Pace = "on_time"
)

// TimeDeviation describes a question answered notably slower or faster than
// its ideal time.
type TimeDeviation struct {
	QuestionID string  `json:"question_id"`
	Chapter    string  `json:"chapter"`
	Topic      string  `json:"topic"`
	TimeTaken  int     `json:"time_taken"`
	IdealTime  int     `json:"ideal_time"`
	Ratio      float64 `json:"ratio"`
	IsCorrect  bool    `json:"is_correct"`
	Pace       Pace    `json:"pace"`
}

// IsSlow reports actual >= 1.5 * ideal.
func IsSlow(actual, ideal int) bool {
	return float64(actual) >= SlowFactor*float64(ideal)
}

// IsQuick reports actual <= 0.5 * ideal.
func IsQuick(actual, ideal int) bool {
	return float64(actual) <= QuickFactor*float64(ideal)
}

// Classify returns the pace for the given times. A non-positive ideal time is
// replaced by DefaultIdealTime.
func Classify(actual, ideal int) Pace {
	if ideal <= 0 {
		ideal = DefaultIdealTime
	}
	switch {
	case IsSlow(actual, ideal):
		return PaceSlow
	case IsQuick(actual, ideal):
		return PaceQuick
	default:
		return PaceOnTime
	}
}

// classifyTime builds the deviation entry for a result. Results with no
// recorded time were never opened and are skipped.
func classifyTime(res QuestionResult, m QuestionMetadata) (TimeDeviation, bool) {
	if res.TimeTaken <= 0 {
		return TimeDeviation{}, false
	}
	return TimeDeviation{
		QuestionID: res.QuestionID,
		Chapter:    m.Chapter,
		Topic:      m.Topic,
		TimeTaken:  res.TimeTaken,
		IdealTime:  m.IdealTime,
		Ratio:      math.Round(float64(res.TimeTaken)/float64(m.IdealTime)*100) / 100,
		IsCorrect:  res.Attempted() && res.IsCorrect,
		Pace:       Classify(res.TimeTaken, m.IdealTime),
	}, true
}
