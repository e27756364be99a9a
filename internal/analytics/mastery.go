package analytics

import (
	"fmt"
	"sort"
)

// MasteryLevel is an ordinal bucket derived from a topic's percentage.
// Higher values mean stronger mastery.
type MasteryLevel int

const (
	NeedsImprovement MasteryLevel = iota
	Average
	Good
	Excellent
)

// Bucket thresholds, inclusive.
const (
	ExcellentThreshold = 90
	GoodThreshold      = 75
	AverageThreshold   = 60
)

var masteryNames = map[MasteryLevel]string{
	NeedsImprovement: "Needs Improvement",
	Average:          "Average",
	Good:             "Good",
	Excellent:        "Excellent",
}

// ClassifyMastery maps a percentage onto its mastery bucket.
func ClassifyMastery(percentage int) MasteryLevel {
	switch {
	case percentage >= ExcellentThreshold:
		return Excellent
	case percentage >= GoodThreshold:
		return Good
	case percentage >= AverageThreshold:
		return Average
	default:
		return NeedsImprovement
	}
}

func (m MasteryLevel) String() string {
	if name, ok := masteryNames[m]; ok {
		return name
	}
	return fmt.Sprintf("MasteryLevel(%d)", int(m))
}

func (m MasteryLevel) MarshalText() ([]byte, error) {
	if _, ok := masteryNames[m]; !ok {
		return nil, fmt.Errorf("analytics: invalid mastery level %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *MasteryLevel) UnmarshalText(text []byte) error {
	for level, name := range masteryNames {
		if name == string(text) {
			*m = level
			return nil
		}
	}
	return fmt.Errorf("analytics: unknown mastery level %q", text)
}

// WeakestTopics returns the report's topics ordered weakest first: by mastery
// level, then percentage, then topic name.
func WeakestTopics(r Report) []TopicMastery {
	out := make([]TopicMastery, len(r.Topics))
	copy(out, r.Topics)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		if a.Percentage != b.Percentage {
			return a.Percentage < b.Percentage
		}
		return a.Key < b.Key
	})
	return out
}
