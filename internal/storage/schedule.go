package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/grestudy/internal/domain"
	"github.com/conorfennell/grestudy/internal/review"
)

var _ review.Repository = (*DB)(nil)

// LoadScheduleState returns the stored schedule of an item.
func (db *DB) LoadScheduleState(ctx context.Context, itemID int64) (domain.ScheduleState, error) {
	e, err := db.FindItem(ctx, itemID)
	if err != nil {
		return domain.ScheduleState{}, err
	}
	return e.Schedule, nil
}

// SaveScheduleState writes state if the stored version equals expectedVersion.
// All schedule columns change in a single UPDATE.
func (db *DB) SaveScheduleState(ctx context.Context, itemID int64, state domain.ScheduleState, expectedVersion int64) error {
	var lastReviewed sql.NullString
	if state.LastReviewedAt != nil {
		lastReviewed = sql.NullString{String: state.LastReviewedAt.UTC().Format(timeLayout), Valid: true}
	}

	return db.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, db.rebind(`
			UPDATE items
			SET repetition_count = ?, ease_factor = ?, interval_days = ?, due_date = ?, mastered = ?,
				last_reviewed_at = ?, total_attempts = ?, got_correct = ?, version = ?
			WHERE id = ? AND version = ?
		`),
			state.RepetitionCount,
			state.EaseFactor,
			state.IntervalDays,
			domain.Day(state.DueDate).Format(domain.DateLayout),
			state.Mastered,
			lastReviewed,
			state.TotalAttempts,
			state.GotCorrect,
			state.Version,
			itemID,
			expectedVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to update schedule for item %d: %w", itemID, mapError(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update schedule for item %d: %w", itemID, err)
		}
		if n == 1 {
			return nil
		}

		var exists int
		err = tx.QueryRowContext(ctx, db.rebind(`SELECT 1 FROM items WHERE id = ?`), itemID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to update schedule for item %d: %w", itemID, mapError(err))
		}
		return fmt.Errorf("item %d at version %d: %w", itemID, expectedVersion, review.ErrConcurrentModification)
	})
}

// QueryDueItems returns the unmastered items of a category due on or before asOf.
func (db *DB) QueryDueItems(ctx context.Context, category domain.Category, asOf time.Time) ([]domain.Entry, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT `+entryColumns+`
		FROM items
		WHERE category = ? AND mastered = ? AND due_date <= ?
		ORDER BY due_date, id
	`), string(category), false, domain.Day(asOf).Format(domain.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query due %s items: %w", category, mapError(err))
	}
	defer rows.Close()
	return scanEntries(rows)
}

// CategoryStats counts the items of one category.
type CategoryStats struct {
	Category   domain.Category `json:"category"`
	Total      int             `json:"total"`
	Mastered   int             `json:"mastered"`
	InProgress int             `json:"in_progress"`
	DueToday   int             `json:"due_today"`
}

// Stats returns per-category counts as of today, in display order.
func (db *DB) Stats(ctx context.Context, today time.Time) ([]CategoryStats, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT category,
			COUNT(*),
			COALESCE(SUM(CASE WHEN mastered THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN NOT mastered AND due_date <= ? THEN 1 ELSE 0 END), 0)
		FROM items
		GROUP BY category
	`), domain.Day(today).Format(domain.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", mapError(err))
	}
	defer rows.Close()

	byCategory := make(map[domain.Category]CategoryStats)
	for rows.Next() {
		var (
			s   CategoryStats
			cat string
		)
		if err := rows.Scan(&cat, &s.Total, &s.Mastered, &s.DueToday); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		s.Category = domain.Category(cat)
		s.InProgress = s.Total - s.Mastered
		byCategory[s.Category] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stats rows: %w", mapError(err))
	}

	out := make([]CategoryStats, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		s := byCategory[c]
		s.Category = c
		out = append(out, s)
	}
	return out, nil
}
