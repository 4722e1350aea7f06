package queue

import (
	"sort"
	"time"

	"github.com/conorfennell/grestudy/internal/domain"
)

// Queue is the set of items to review on one day, split into study tracks.
type Queue struct {
	Quant  []domain.Item `json:"quant"`
	Verbal []domain.Item `json:"verbal"`
}

// Len returns the total number of queued items.
func (q Queue) Len() int {
	return len(q.Quant) + len(q.Verbal)
}

// BuildTodayQueue selects the unmastered entries due on or before today and
// orders each track by due date, most overdue first, then by item id.
// Entries with an unknown category are skipped.
func BuildTodayQueue(today time.Time, entries []domain.Entry) Queue {
	today = domain.Day(today)

	var quant, verbal []domain.Entry
	for _, e := range entries {
		if e.Schedule.Mastered || !e.Schedule.IsDue(today) {
			continue
		}
		switch e.Item.Category {
		case domain.Quant:
			quant = append(quant, e)
		case domain.Verbal:
			verbal = append(verbal, e)
		}
	}

	return Queue{
		Quant:  ordered(quant),
		Verbal: ordered(verbal),
	}
}

func ordered(entries []domain.Entry) []domain.Item {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := entries[i].Schedule.DueDate, entries[j].Schedule.DueDate
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return entries[i].Item.ID < entries[j].Item.ID
	})

	items := make([]domain.Item, len(entries))
	for i, e := range entries {
		items[i] = e.Item
	}
	return items
}
