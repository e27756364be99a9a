// Package personalize picks the questions of a cycle's personalized test
// from the student's weakest topics.
package personalize

import (
	"math/rand"

	"github.com/neetprep/backend/internal/analytics"
	"github.com/neetprep/backend/internal/domain/question"
)

const DefaultSize = 20

type Builder struct {
	Size int
	Rand *rand.Rand // nil keeps bank order
}

// Build returns up to Size question IDs. Weak topics (below Excellent,
// weakest first) are served round-robin from unseen questions. The test is
// then topped up with other unseen questions and, if the bank runs short,
// with already seen questions. No question appears twice.
func (b Builder) Build(report analytics.Report, bank []*question.Question, seen map[string]bool) []string {
	size := b.Size
	if size <= 0 {
		size = DefaultSize
	}

	byTopic := make(map[string][]*question.Question)
	for _, q := range b.shuffled(bank) {
		byTopic[topicKey(q)] = append(byTopic[topicKey(q)], q)
	}

	var weak []string
	for _, tm := range analytics.WeakestTopics(report) {
		if tm.Level < analytics.Excellent {
			weak = append(weak, tm.Key)
		}
	}

	picked := make([]string, 0, size)
	used := make(map[string]bool)
	take := func(q *question.Question) {
		if len(picked) < size && !used[q.ID] {
			used[q.ID] = true
			picked = append(picked, q.ID)
		}
	}

	// Round-robin over weak topics, unseen questions only.
	queues := make([][]*question.Question, len(weak))
	for i, topic := range weak {
		for _, q := range byTopic[topic] {
			if !seen[q.ID] {
				queues[i] = append(queues[i], q)
			}
		}
	}
	for progress := true; progress && len(picked) < size; {
		progress = false
		for i := range queues {
			if len(queues[i]) == 0 {
				continue
			}
			take(queues[i][0])
			queues[i] = queues[i][1:]
			progress = true
		}
	}

	rest := b.shuffled(bank)
	for _, q := range rest {
		if !seen[q.ID] {
			take(q)
		}
	}
	for _, q := range rest {
		take(q)
	}
	return picked
}

func (b Builder) shuffled(bank []*question.Question) []*question.Question {
	out := make([]*question.Question, len(bank))
	copy(out, bank)
	if b.Rand != nil {
		b.Rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out
}

func topicKey(q *question.Question) string {
	if q.Topic == "" {
		return analytics.UnknownKey
	}
	return q.Topic
}
