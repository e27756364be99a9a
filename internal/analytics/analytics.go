// Package analytics turns submitted question results into the aggregates shown
// on a results dashboard: score, accuracy, chapter and topic breakdowns, time
// deviations and mistake-tag counts.
//
// Everything here is a pure function of its inputs. Missing metadata falls back
// to placeholder values and empty inputs produce a zero-valued Report.
package analytics

import (
	"math"
	"sort"
)

const (
	// PointsCorrect is awarded for each correct answer.
	PointsCorrect = 4
	// PointsIncorrect is deducted for each attempted but wrong answer.
	PointsIncorrect = 1

	// UnknownKey labels results whose metadata is missing or blank.
	UnknownKey = "Unknown"
)

// QuestionResult is one student's answer to one question.
type QuestionResult struct {
	QuestionID string
	Chosen     *string // nil when the question was left unanswered
	IsCorrect  bool
	TimeTaken  int // seconds
	Tags       []string
}

// Attempted reports whether an answer was chosen.
func (r QuestionResult) Attempted() bool {
	return r.Chosen != nil && *r.Chosen != ""
}

// QuestionMetadata holds the static attributes of a question.
type QuestionMetadata struct {
	Subject       string
	Chapter       string
	Topic         string
	Difficulty    string
	IdealTime     int // seconds; <= 0 means unknown
	CorrectAnswer string
}

// Lookup maps question IDs to their metadata.
type Lookup map[string]QuestionMetadata

// Report is the aggregate view of one or more sets of results.
type Report struct {
	TotalQuestions int `json:"total_questions"`
	Attempted      int `json:"attempted"`
	Correct        int `json:"correct"`
	Incorrect      int `json:"incorrect"`
	Unattempted    int `json:"unattempted"`

	Score        int `json:"score"`
	MaxScore     int `json:"max_score"`
	ScorePercent int `json:"score_percent"`
	Accuracy     int `json:"accuracy"`   // correct / attempted
	Completion   int `json:"completion"` // attempted / total

	TotalTime   int `json:"total_time"`
	AverageTime int `json:"average_time"`

	Subjects     []GroupStats    `json:"subjects"`
	Chapters     []GroupStats    `json:"chapters"`
	Difficulties []GroupStats    `json:"difficulties"`
	Topics       []TopicMastery  `json:"topics"`
	Slow         []TimeDeviation `json:"slow"`
	Quick        []TimeDeviation `json:"quick"`
	Tags         []TagCount      `json:"tags"`
}

// GroupStats summarises the results that share a grouping key.
type GroupStats struct {
	Key         string `json:"key"`
	Total       int    `json:"total"`
	Correct     int    `json:"correct"`
	Incorrect   int    `json:"incorrect"`
	Unattempted int    `json:"unattempted"`
	Score       int    `json:"score"`
	Percentage  int    `json:"percentage"` // correct / total
	Accuracy    int    `json:"accuracy"`   // correct / attempted
}

// TopicMastery is a topic's stats plus its mastery bucket.
type TopicMastery struct {
	GroupStats
	Chapter string       `json:"chapter"`
	// Level is classified from Percentage (correct/total), so unattempted
	// questions pull a topic down; it is not the report's Accuracy.
	Level   MasteryLevel `json:"level"`
}

// TagCount is how often a mistake tag was applied.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Compute builds the Report for the given results.
func Compute(results []QuestionResult, meta Lookup) Report {
	r := Report{
		Topics: []TopicMastery{},
		Slow:   []TimeDeviation{},
		Quick:  []TimeDeviation{},
	}

	subjects := newGrouper()
	chapters := newGrouper()
	difficulties := newGrouper()
	topics := newGrouper()
	topicChapter := make(map[string]string)
	tags := make(map[string]int)

	for _, res := range results {
		m := metadataFor(meta, res.QuestionID)

		r.TotalQuestions++
		r.TotalTime += max(res.TimeTaken, 0)

		switch {
		case !res.Attempted():
			r.Unattempted++
		case res.IsCorrect:
			r.Attempted++
			r.Correct++
		default:
			r.Attempted++
			r.Incorrect++
		}

		subjects.add(m.Subject, res)
		chapters.add(m.Chapter, res)
		difficulties.add(m.Difficulty, res)
		topics.add(m.Topic, res)
		if _, ok := topicChapter[m.Topic]; !ok {
			topicChapter[m.Topic] = m.Chapter
		}

		if dev, ok := classifyTime(res, m); ok {
			switch dev.Pace {
			case PaceSlow:
				r.Slow = append(r.Slow, dev)
			case PaceQuick:
				r.Quick = append(r.Quick, dev)
			}
		}

		for _, tag := range res.Tags {
			tags[tag]++
		}
	}

	r.Score = Score(r.Correct, r.Incorrect)
	r.MaxScore = PointsCorrect * r.TotalQuestions
	r.ScorePercent = Percent(max(r.Score, 0), r.MaxScore)
	r.Accuracy = Percent(r.Correct, r.Attempted)
	r.Completion = Percent(r.Attempted, r.TotalQuestions)
	if r.TotalQuestions > 0 {
		r.AverageTime = int(math.Round(float64(r.TotalTime) / float64(r.TotalQuestions)))
	}

	r.Subjects = subjects.stats()
	r.Chapters = chapters.stats()
	r.Difficulties = difficulties.stats()

	for _, g := range topics.stats() {
		r.Topics = append(r.Topics, TopicMastery{
			GroupStats: g,
			Chapter:    topicChapter[g.Key],
			Level:      ClassifyMastery(g.Percentage),
		})
	}

	r.Tags = tagCounts(tags)
	return r
}

// Score applies the marking scheme: +4 per correct, -1 per incorrect.
func Score(correct, incorrect int) int {
	return PointsCorrect*correct - PointsIncorrect*incorrect
}

// Percent returns round(100*part/whole), or 0 when whole is not positive.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}

// metadataFor returns the metadata for id with placeholders filled in.
func metadataFor(meta Lookup, id string) QuestionMetadata {
	m := meta[id]
	if m.Subject == "" {
		m.Subject = UnknownKey
	}
	if m.Chapter == "" {
		m.Chapter = UnknownKey
	}
	if m.Topic == "" {
		m.Topic = UnknownKey
	}
	if m.Difficulty == "" {
		m.Difficulty = UnknownKey
	}
	if m.IdealTime <= 0 {
		m.IdealTime = DefaultIdealTime
	}
	return m
}

type grouper map[string]*GroupStats

func newGrouper() grouper {
	return make(grouper)
}

func (g grouper) add(key string, res QuestionResult) {
	s, ok := g[key]
	if !ok {
		s = &GroupStats{Key: key}
		g[key] = s
	}
	s.Total++
	switch {
	case !res.Attempted():
		s.Unattempted++
	case res.IsCorrect:
		s.Correct++
	default:
		s.Incorrect++
	}
}

// stats finalises the groups, sorted by key.
func (g grouper) stats() []GroupStats {
	out := make([]GroupStats, 0, len(g))
	for _, s := range g {
		s.Score = Score(s.Correct, s.Incorrect)
		s.Percentage = Percent(s.Correct, s.Total)
		s.Accuracy = Percent(s.Correct, s.Correct+s.Incorrect)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func tagCounts(tags map[string]int) []TagCount {
	out := make([]TagCount, 0, len(tags))
	for tag, n := range tags {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
