// Package cycle decides which mock-test cycles a user can open.
//
// A cycle is four fixed tests followed by one personalized test. Cycle 1 is
// free; every later cycle needs premium access and a completed previous cycle.
// The personalized test of a cycle opens once its four fixed tests are
// submitted.
package cycle

import (
	"errors"
	"fmt"
)

const (
	FixedTestsPerCycle   = 4
	PersonalizedPosition = FixedTestsPerCycle + 1
)

var ErrLocked = errors.New("cycle locked")

// Lock reasons.
const (
	ReasonPremium  = "premium_required"
	ReasonPrevious = "previous_cycle_incomplete"
)

// Progress is what a user has submitted within one cycle.
type Progress struct {
	FixedSubmitted        int  `json:"fixed_submitted"`
	PersonalizedSubmitted bool `json:"personalized_submitted"`
}

func (p Progress) Complete() bool {
	return p.FixedSubmitted >= FixedTestsPerCycle && p.PersonalizedSubmitted
}

type Status struct {
	Cycle                int      `json:"cycle"`
	Unlocked             bool     `json:"unlocked"`
	Reason               string   `json:"reason,omitempty"`
	Progress             Progress `json:"progress"`
	PersonalizedUnlocked bool     `json:"personalized_unlocked"`
	Completed            bool     `json:"completed"`
}

// Evaluate returns the status of cycles 1..total.
func Evaluate(total int, premium bool, progress map[int]Progress) []Status {
	out := make([]Status, 0, max(total, 0))
	for c := 1; c <= total; c++ {
		p := progress[c]
		s := Status{Cycle: c, Progress: p, Completed: p.Complete()}

		switch {
		case c == 1:
			s.Unlocked = true
		case !premium:
			s.Reason = ReasonPremium
		case !progress[c-1].Complete():
			s.Reason = ReasonPrevious
		default:
			s.Unlocked = true
		}

		s.PersonalizedUnlocked = s.Unlocked && p.FixedSubmitted >= FixedTestsPerCycle
		out = append(out, s)
	}
	return out
}

// CheckAccess returns ErrLocked (wrapped with the reason) unless position
// of cycle may be opened.
func CheckAccess(statuses []Status, cycle, position int) error {
	if cycle < 1 || cycle > len(statuses) {
		return fmt.Errorf("%w: cycle %d does not exist", ErrLocked, cycle)
	}
	s := statuses[cycle-1]
	if !s.Unlocked {
		return fmt.Errorf("%w: cycle %d: %s", ErrLocked, cycle, s.Reason)
	}
	if position == PersonalizedPosition && !s.PersonalizedUnlocked {
		return fmt.Errorf("%w: cycle %d: submit all %d fixed tests first", ErrLocked, cycle, FixedTestsPerCycle)
	}
	return nil
}
