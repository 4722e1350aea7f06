package domain

import "time"

const (
	// InitialEaseFactor is the ease every new or reset item starts with.
	InitialEaseFactor = 2.5
	// MinEaseFactor is the hard floor for the ease factor.
	MinEaseFactor = 1.3
	// InitialIntervalDays is the interval of a new or failed item.
	InitialIntervalDays = 1
)

// DateLayout is the wire and storage format for civil dates.
const DateLayout = "2006-01-02"

// ScheduleState is the spaced-repetition state of one item. It is a value
// object: the counter driving mastery lives next to ease and interval so that
// all of them change in a single write.
type ScheduleState struct {
	RepetitionCount int        `json:"repetition_count"`
	EaseFactor      float64    `json:"ease_factor"`
	IntervalDays    int        `json:"interval_days"`
	DueDate         time.Time  `json:"due_date"`
	Mastered        bool       `json:"mastered"`
	LastReviewedAt  *time.Time `json:"last_reviewed_at"`
	TotalAttempts   int        `json:"total_attempts"`
	GotCorrect      bool       `json:"got_correct"`
	Version         int64      `json:"version"`
}

// NewScheduleState returns the schedule of an item created at the given time.
func NewScheduleState(created time.Time) ScheduleState {
	return ScheduleState{
		RepetitionCount: 0,
		EaseFactor:      InitialEaseFactor,
		IntervalDays:    InitialIntervalDays,
		DueDate:         Day(created),
		Mastered:        false,
		Version:         1,
	}
}

// IsDue reports whether the item should be reviewed on the given day.
func (s ScheduleState) IsDue(today time.Time) bool {
	return !s.DueDate.After(Day(today))
}

// Reset returns the state after an explicit mastery reset. Attempt statistics
// and the version are carried over; the caller persists the result.
func (s ScheduleState) Reset(today time.Time) ScheduleState {
	out := s
	out.RepetitionCount = 0
	out.EaseFactor = InitialEaseFactor
	out.IntervalDays = InitialIntervalDays
	out.DueDate = Day(today)
	out.Mastered = false
	return out
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
