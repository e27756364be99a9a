package cycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neetprep/backend/internal/domain/cycle"
)

var done = cycle.Progress{FixedSubmitted: 4, PersonalizedSubmitted: true}

func TestEvaluate_FirstCycleFree(t *testing.T) {
	s := cycle.Evaluate(3, false, nil)

	require.Len(t, s, 3)
	assert.True(t, s[0].Unlocked)
	assert.False(t, s[1].Unlocked)
	assert.Equal(t, cycle.ReasonPremium, s[1].Reason)
	assert.False(t, s[0].PersonalizedUnlocked)
}

func TestEvaluate_PremiumNeedsPreviousCycle(t *testing.T) {
	s := cycle.Evaluate(3, true, map[int]cycle.Progress{1: done, 2: {FixedSubmitted: 4}})

	assert.True(t, s[1].Unlocked)
	assert.True(t, s[1].PersonalizedUnlocked)
	assert.False(t, s[1].Completed)
	assert.False(t, s[2].Unlocked)
	assert.Equal(t, cycle.ReasonPrevious, s[2].Reason)
}

func TestEvaluate_CompletionWithoutPremium(t *testing.T) {
	s := cycle.Evaluate(2, false, map[int]cycle.Progress{1: done})

	assert.True(t, s[0].Completed)
	assert.False(t, s[1].Unlocked)
	assert.Equal(t, cycle.ReasonPremium, s[1].Reason)
}

func TestCheckAccess(t *testing.T) {
	s := cycle.Evaluate(2, false, map[int]cycle.Progress{1: {FixedSubmitted: 3}})

	assert.NoError(t, cycle.CheckAccess(s, 1, 2))
	assert.ErrorIs(t, cycle.CheckAccess(s, 1, cycle.PersonalizedPosition), cycle.ErrLocked)
	assert.ErrorIs(t, cycle.CheckAccess(s, 2, 1), cycle.ErrLocked)
	assert.ErrorIs(t, cycle.CheckAccess(s, 9, 1), cycle.ErrLocked)

	s = cycle.Evaluate(2, false, map[int]cycle.Progress{1: {FixedSubmitted: 4}})
	assert.NoError(t, cycle.CheckAccess(s, 1, cycle.PersonalizedPosition))
}

func TestEvaluate_ZeroCycles(t *testing.T) {
	assert.Empty(t, cycle.Evaluate(0, true, nil))
}
