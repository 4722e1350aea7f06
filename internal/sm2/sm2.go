package sm2

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/conorfennell/grestudy/internal/domain"
)

// Quality is the learner's 1-5 self-rating of recall at review time.
type Quality int

const (
	Blackout  Quality = 1 // Complete failure to recall.
	Incorrect Quality = 2 // Wrong, but recognised the answer.
	Difficult Quality = 3 // Correct with serious difficulty.
	Hesitant  Quality = 4 // Correct after hesitation.
	Perfect   Quality = 5 // Correct and effortless.
)

// ErrInvalidQualityScore is returned for a quality outside 1-5.
var ErrInvalidQualityScore = errors.New("invalid quality score")

// IsValid reports whether q is within 1-5.
func (q Quality) IsValid() bool {
	return q >= Blackout && q <= Perfect
}

// MasteryRepetitions is the number of consecutive passing reviews after which
// an item is retired as mastered.
const MasteryRepetitions = 5

// Params holds the tunables of the SM-2 update rule.
type Params struct {
	PassThreshold      Quality // lowest quality that counts as a pass
	MinEaseFactor      float64 // ease factor floor
	FirstInterval      int     // interval after the first pass, in days
	SecondInterval     int     // interval after the second pass, in days
	MasteryRepetitions int     // consecutive passes that retire an item
	CorrectThreshold   Quality // lowest quality recorded as "got correct"
}

// DefaultParams returns the classic SM-2 constants.
func DefaultParams() *Params {
	return &Params{
		PassThreshold:      Difficult,
		MinEaseFactor:      domain.MinEaseFactor,
		FirstInterval:      1,
		SecondInterval:     6,
		MasteryRepetitions: MasteryRepetitions,
		CorrectThreshold:   Hesitant,
	}
}

// ComputeNext applies one review with the default parameters.
func ComputeNext(state domain.ScheduleState, quality Quality, now time.Time) (domain.ScheduleState, error) {
	return DefaultParams().ComputeNext(state, quality, now)
}

// ComputeNext returns the schedule that follows a review of the given quality
// at time now. It has no side effects and never modifies state.
func (p *Params) ComputeNext(state domain.ScheduleState, quality Quality, now time.Time) (domain.ScheduleState, error) {
	if !quality.IsValid() {
		return domain.ScheduleState{}, fmt.Errorf("%w: %d (want 1-5)", ErrInvalidQualityScore, int(quality))
	}

	next := state
	if quality < p.PassThreshold {
		next.RepetitionCount = 0
		next.IntervalDays = domain.InitialIntervalDays
	} else {
		next.RepetitionCount = state.RepetitionCount + 1
		next.IntervalDays = p.nextInterval(next.RepetitionCount, state.IntervalDays, state.EaseFactor)
	}

	next.EaseFactor = p.nextEase(state.EaseFactor, quality)
	next.DueDate = domain.Day(now).AddDate(0, 0, next.IntervalDays)
	reviewed := now
	next.LastReviewedAt = &reviewed

	next.TotalAttempts = state.TotalAttempts + 1
	if quality >= p.CorrectThreshold {
		next.GotCorrect = true
	}

	// Mastery is decided in the same call as the counter it depends on.
	if p.masteredAfter(next.RepetitionCount) {
		next.Mastered = true
	}
	return next, nil
}

// nextInterval computes the interval after a pass that brought the
// repetition count to reps.
func (p *Params) nextInterval(reps, prevInterval int, ease float64) int {
	switch reps {
	case 1:
		return p.FirstInterval
	case 2:
		return p.SecondInterval
	}
	if prevInterval < 1 {
		prevInterval = 1
	}
	if ease < p.MinEaseFactor {
		ease = p.MinEaseFactor
	}
	interval := roundHalfUp(float64(prevInterval) * ease)
	if interval < prevInterval {
		interval = prevInterval
	}
	return interval
}

// nextEase applies the SM-2 ease adjustment and clamps it to the floor.
func (p *Params) nextEase(ease float64, quality Quality) float64 {
	miss := float64(Perfect - quality)
	ease += 0.1 - miss*(0.08+miss*0.02)
	return math.Max(ease, p.MinEaseFactor)
}

func (p *Params) masteredAfter(reps int) bool {
	return reps >= p.MasteryRepetitions
}

// roundHalfUp rounds a positive value to the nearest integer, halves up.
// The small epsilon absorbs float error such as 2.5 being stored as 2.4999...
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5 + 1e-9))
}
