package analytics_test

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neetprep/backend/internal/analytics"
)

func opt(s string) *string { return &s }

func answered(id string, correct bool, seconds int) analytics.QuestionResult {
	return analytics.QuestionResult{QuestionID: id, Chosen: opt("A"), IsCorrect: correct, TimeTaken: seconds}
}

func skipped(id string, seconds int) analytics.QuestionResult {
	return analytics.QuestionResult{QuestionID: id, TimeTaken: seconds}
}

func TestCompute_ScoreAndAccuracy(t *testing.T) {
	var results []analytics.QuestionResult
	for i := 0; i < 7; i++ {
		results = append(results, answered(fmt.Sprintf("c%d", i), true, 60))
	}
	results = append(results, answered("w0", false, 60))
	results = append(results, skipped("s0", 0), skipped("s1", 0))

	r := analytics.Compute(results, nil)

	assert.Equal(t, 10, r.TotalQuestions)
	assert.Equal(t, 8, r.Attempted)
	assert.Equal(t, 7, r.Correct)
	assert.Equal(t, 1, r.Incorrect)
	assert.Equal(t, 2, r.Unattempted)
	assert.Equal(t, 27, r.Score)
	assert.Equal(t, 40, r.MaxScore)
	assert.Equal(t, 88, r.Accuracy, "accuracy is correct/attempted")
	assert.Equal(t, 80, r.Completion)
	assert.Equal(t, 68, r.ScorePercent)
}

func TestCompute_EmptyInput(t *testing.T) {
	r := analytics.Compute(nil, nil)

	assert.Zero(t, r.TotalQuestions)
	assert.Zero(t, r.Score)
	assert.Zero(t, r.Accuracy)
	assert.Zero(t, r.AverageTime)
	assert.Empty(t, r.Chapters)
	assert.Empty(t, r.Topics)
	assert.NotNil(t, r.Slow)
	assert.NotNil(t, r.Quick)
}

func TestCompute_NegativeScoreFloorsScorePercent(t *testing.T) {
	r := analytics.Compute([]analytics.QuestionResult{
		answered("a", false, 10),
		answered("b", false, 10),
	}, nil)

	assert.Equal(t, -2, r.Score)
	assert.Equal(t, 0, r.ScorePercent)
	assert.Equal(t, 0, r.Accuracy)
}

func TestCompute_UnattemptedIgnoresCorrectFlag(t *testing.T) {
	// A result without a chosen answer can never count as correct.
	r := analytics.Compute([]analytics.QuestionResult{
		{QuestionID: "q", IsCorrect: true},
	}, nil)

	assert.Equal(t, 0, r.Correct)
	assert.Equal(t, 1, r.Unattempted)
	assert.Equal(t, 0, r.Score)
}

func TestCompute_ChapterBreakdown(t *testing.T) {
	meta := analytics.Lookup{
		"k1": {Subject: "physics", Chapter: "Kinematics", Topic: "Projectile"},
		"k2": {Subject: "physics", Chapter: "Kinematics", Topic: "Projectile"},
		"k3": {Subject: "physics", Chapter: "Kinematics", Topic: "Relative Motion"},
		"o1": {Subject: "chemistry", Chapter: "Organic", Topic: "Isomerism"},
	}
	results := []analytics.QuestionResult{
		answered("k1", true, 30),
		answered("k2", false, 30),
		skipped("k3", 0),
		answered("o1", true, 30),
		answered("missing", true, 30),
	}

	r := analytics.Compute(results, meta)

	want := []analytics.GroupStats{
		{Key: "Kinematics", Total: 3, Correct: 1, Incorrect: 1, Unattempted: 1, Score: 3, Percentage: 33, Accuracy: 50},
		{Key: "Organic", Total: 1, Correct: 1, Score: 4, Percentage: 100, Accuracy: 100},
		{Key: analytics.UnknownKey, Total: 1, Correct: 1, Score: 4, Percentage: 100, Accuracy: 100},
	}
	if diff := cmp.Diff(want, r.Chapters); diff != "" {
		t.Errorf("chapters mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, r.Subjects, 3)
	assert.Equal(t, analytics.UnknownKey, r.Subjects[0].Key)
	assert.Equal(t, "chemistry", r.Subjects[1].Key)
	assert.Equal(t, "physics", r.Subjects[2].Key)
}

func TestCompute_TopicMastery(t *testing.T) {
	meta := analytics.Lookup{}
	var results []analytics.QuestionResult
	add := func(topic string, correct, total int) {
		for i := 0; i < total; i++ {
			id := fmt.Sprintf("%s-%d", topic, i)
			meta[id] = analytics.QuestionMetadata{Chapter: "Genetics", Topic: topic}
			results = append(results, answered(id, i < correct, 40))
		}
	}
	add("Mendel", 9, 10)
	add("Linkage", 3, 4)
	add("Mutation", 6, 10)
	add("Pedigree", 1, 2)

	r := analytics.Compute(results, meta)

	levels := map[string]analytics.MasteryLevel{}
	for _, tm := range r.Topics {
		levels[tm.Key] = tm.Level
		assert.Equal(t, "Genetics", tm.Chapter)
	}
	assert.Equal(t, analytics.Excellent, levels["Mendel"])
	assert.Equal(t, analytics.Good, levels["Linkage"])
	assert.Equal(t, analytics.Average, levels["Mutation"])
	assert.Equal(t, analytics.NeedsImprovement, levels["Pedigree"])

	weak := analytics.WeakestTopics(r)
	require.Len(t, weak, 4)
	assert.Equal(t, "Pedigree", weak[0].Key)
	assert.Equal(t, "Mendel", weak[3].Key)
}

func TestCompute_TimeAnalysis(t *testing.T) {
	meta := analytics.Lookup{
		"slow":   {IdealTime: 60},
		"quick":  {IdealTime: 60},
		"normal": {IdealTime: 60},
		"edge":   {IdealTime: 40},
	}
	results := []analytics.QuestionResult{
		answered("slow", true, 90),
		answered("quick", false, 30),
		answered("normal", true, 60),
		answered("edge", true, 59),
		answered("no-meta", true, 95),
		skipped("never-opened", 0),
	}

	r := analytics.Compute(results, meta)

	var slow, quick []string
	for _, d := range r.Slow {
		slow = append(slow, d.QuestionID)
	}
	for _, d := range r.Quick {
		quick = append(quick, d.QuestionID)
	}
	assert.Equal(t, []string{"slow", "no-meta"}, slow)
	assert.Equal(t, []string{"quick"}, quick)
	assert.Equal(t, 1.5, r.Slow[0].Ratio)
	assert.Equal(t, analytics.DefaultIdealTime, r.Slow[1].IdealTime)
	assert.Equal(t, 334, r.TotalTime)
	assert.Equal(t, 56, r.AverageTime)
}

func TestCompute_TagDistribution(t *testing.T) {
	a := answered("a", false, 10)
	a.Tags = []string{"conceptual", "guess"}
	b := answered("b", false, 10)
	b.Tags = []string{"conceptual"}
	c := answered("c", false, 10)
	c.Tags = []string{"silly"}

	r := analytics.Compute([]analytics.QuestionResult{a, b, c}, nil)

	want := []analytics.TagCount{
		{Tag: "conceptual", Count: 2},
		{Tag: "guess", Count: 1},
		{Tag: "silly", Count: 1},
	}
	assert.Equal(t, want, r.Tags)
}

func TestClassifyMastery_Boundaries(t *testing.T) {
	tests := []struct {
		pct  int
		want analytics.MasteryLevel
	}{
		{0, analytics.NeedsImprovement},
		{59, analytics.NeedsImprovement},
		{60, analytics.Average},
		{74, analytics.Average},
		{75, analytics.Good},
		{89, analytics.Good},
		{90, analytics.Excellent},
		{100, analytics.Excellent},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.pct), func(t *testing.T) {
			assert.Equal(t, tt.want, analytics.ClassifyMastery(tt.pct))
		})
	}
}

func TestMasteryLevel_Text(t *testing.T) {
	b, err := analytics.Good.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Good", string(b))

	var m analytics.MasteryLevel
	require.NoError(t, m.UnmarshalText([]byte("Needs Improvement")))
	assert.Equal(t, analytics.NeedsImprovement, m)

	assert.Error(t, m.UnmarshalText([]byte("Perfect")))
	_, err = analytics.MasteryLevel(42).MarshalText()
	assert.Error(t, err)
}

// The properties below run over random result sets.

func randomResults(rng *rand.Rand, n int) ([]analytics.QuestionResult, analytics.Lookup) {
	meta := analytics.Lookup{}
	results := make([]analytics.QuestionResult, n)
	for i := range results {
		id := fmt.Sprintf("q%d", i)
		meta[id] = analytics.QuestionMetadata{
			Chapter:   fmt.Sprintf("ch%d", rng.Intn(4)),
			Topic:     fmt.Sprintf("tp%d", rng.Intn(6)),
			IdealTime: rng.Intn(120),
		}
		res := analytics.QuestionResult{QuestionID: id, TimeTaken: rng.Intn(240)}
		if rng.Intn(4) != 0 {
			res.Chosen = opt("B")
			res.IsCorrect = rng.Intn(2) == 0
		}
		results[i] = res
	}
	return results, meta
}

func TestProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		results, meta := randomResults(rng, rng.Intn(50))
		r := analytics.Compute(results, meta)

		assert.Equal(t, 4*r.Correct-r.Incorrect, r.Score)
		assert.LessOrEqual(t, r.Score, 4*r.TotalQuestions)
		assert.GreaterOrEqual(t, r.Accuracy, 0)
		assert.LessOrEqual(t, r.Accuracy, 100)
		if r.Attempted > 0 {
			want := int(math.Round(100 * float64(r.Correct) / float64(r.Attempted)))
			assert.Equal(t, want, r.Accuracy)
		} else {
			assert.Zero(t, r.Accuracy)
		}

		slow := map[string]bool{}
		for _, d := range r.Slow {
			assert.GreaterOrEqual(t, float64(d.TimeTaken), 1.5*float64(d.IdealTime))
			slow[d.QuestionID] = true
		}
		for _, d := range r.Quick {
			assert.LessOrEqual(t, float64(d.TimeTaken), 0.5*float64(d.IdealTime))
			assert.False(t, slow[d.QuestionID], "question %s both slow and quick", d.QuestionID)
		}
	}
}

func TestProperty_MasteryMonotonic(t *testing.T) {
	prev := analytics.ClassifyMastery(0)
	for pct := 1; pct <= 100; pct++ {
		cur := analytics.ClassifyMastery(pct)
		assert.GreaterOrEqual(t, int(cur), int(prev), "bucket decreased at %d%%", pct)
		prev = cur
	}
}

func TestClassify_DefaultsIdealTime(t *testing.T) {
	assert.Equal(t, analytics.PaceSlow, analytics.Classify(90, 0))
	assert.Equal(t, analytics.PaceQuick, analytics.Classify(30, -5))
	assert.Equal(t, analytics.PaceOnTime, analytics.Classify(45, 0))
}

func TestCompute_TopicMasteryCountsSkipped(t *testing.T) {
	meta := analytics.Lookup{}
	var results []analytics.QuestionResult
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("optics-%d", i)
		meta[id] = analytics.QuestionMetadata{Chapter: "Optics", Topic: "Lens"}
		if i < 3 {
			results = append(results, answered(id, true, 30))
		} else {
			results = append(results, skipped(id, 0))
		}
	}

	r := analytics.Compute(results, meta)
	require.Len(t, r.Topics, 1)
	tm := r.Topics[0]
	assert.Equal(t, 100, tm.Accuracy)
	assert.Equal(t, 75, tm.Percentage)
	assert.Equal(t, analytics.Good, tm.Level)
}
