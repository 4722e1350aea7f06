package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduleState(t *testing.T) {
	created := time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)
	s := NewScheduleState(created)

	assert.Equal(t, 0, s.RepetitionCount)
	assert.Equal(t, 2.5, s.EaseFactor)
	assert.Equal(t, 1, s.IntervalDays)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), s.DueDate)
	assert.False(t, s.Mastered)
	assert.Nil(t, s.LastReviewedAt)
	assert.Equal(t, int64(1), s.Version)
}

func TestIsDue(t *testing.T) {
	s := ScheduleState{DueDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)}

	testCases := []struct {
		name  string
		today time.Time
		want  bool
	}{
		{"day before", time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC), false},
		{"same day", time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC), true},
		{"long overdue", time.Date(2031, 7, 1, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.IsDue(tc.today))
		})
	}
}

func TestReset(t *testing.T) {
	reviewed := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	mastered := ScheduleState{
		RepetitionCount: 5,
		EaseFactor:      2.9,
		IntervalDays:    80,
		DueDate:         time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Mastered:        true,
		LastReviewedAt:  &reviewed,
		TotalAttempts:   7,
		GotCorrect:      true,
		Version:         8,
	}
	today := time.Date(2025, 2, 1, 15, 0, 0, 0, time.UTC)

	got := mastered.Reset(today)

	assert.Equal(t, 0, got.RepetitionCount)
	assert.Equal(t, InitialEaseFactor, got.EaseFactor)
	assert.Equal(t, 1, got.IntervalDays)
	assert.Equal(t, Day(today), got.DueDate)
	assert.False(t, got.Mastered)
	assert.Equal(t, 7, got.TotalAttempts)
	assert.Equal(t, int64(8), got.Version)
	assert.True(t, mastered.Mastered, "receiver must not change")
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" verbal ")
	require.NoError(t, err)
	assert.Equal(t, Verbal, c)

	_, err = ParseCategory("Writing")
	assert.Error(t, err)
}
