package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/conorfennell/grestudy/internal/domain"
	"github.com/conorfennell/grestudy/internal/knol"
	"github.com/conorfennell/grestudy/internal/review"
)

// timeLayout is fixed-width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const entryColumns = `
	id, kind, category, topic, sub_topic, error_type, prompt, answer, notes, tags, hash, created_at,
	repetition_count, ease_factor, interval_days, due_date, mastered, last_reviewed_at,
	total_attempts, got_correct, version`

// Filter narrows ListItems. Zero fields match everything.
type Filter struct {
	Kind     domain.Kind
	Category domain.Category
	Topic    string
	Mastered *bool
}

// CreateItem inserts a new item with a fresh schedule due on the creation day.
// The content hash is computed when the item does not carry one.
func (db *DB) CreateItem(ctx context.Context, item domain.Item, created time.Time) (domain.Entry, error) {
	if item.Hash == "" {
		item.Hash = knol.Hash(item)
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	item.CreatedAt = created.UTC()
	state := domain.NewScheduleState(created)

	row := db.conn.QueryRowContext(ctx, db.rebind(`
		INSERT INTO items (kind, category, topic, sub_topic, error_type, prompt, answer, notes, tags, hash, created_at,
			repetition_count, ease_factor, interval_days, due_date, mastered, total_attempts, got_correct, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`),
		string(item.Kind),
		string(item.Category),
		item.Topic,
		item.SubTopic,
		item.ErrorType,
		item.Prompt,
		item.Answer,
		item.Notes,
		string(tags),
		item.Hash,
		item.CreatedAt.Format(timeLayout),
		state.RepetitionCount,
		state.EaseFactor,
		state.IntervalDays,
		state.DueDate.Format(domain.DateLayout),
		state.Mastered,
		state.TotalAttempts,
		state.GotCorrect,
		state.Version,
	)
	if err := row.Scan(&item.ID); err != nil {
		return domain.Entry{}, fmt.Errorf("failed to insert item %s: %w", item.Hash, mapError(err))
	}
	return domain.Entry{Item: item, Schedule: state}, nil
}

// FindItem retrieves an item and its schedule by ID.
func (db *DB) FindItem(ctx context.Context, id int64) (domain.Entry, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(`SELECT `+entryColumns+` FROM items WHERE id = ?`), id)
	e, err := scanEntry(row)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("failed to find item %d: %w", id, mapError(err))
	}
	return e, nil
}

// FindItemByHash retrieves an item by its content hash. It returns nil when
// no item matches.
func (db *DB) FindItemByHash(ctx context.Context, hash string) (*domain.Entry, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(`SELECT `+entryColumns+` FROM items WHERE hash = ?`), hash)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Item not found
		}
		return nil, fmt.Errorf("failed to find item by hash %s: %w", hash, mapError(err))
	}
	return &e, nil
}

// ListItems returns items matching f, newest first.
func (db *DB) ListItems(ctx context.Context, f Filter) ([]domain.Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.Topic != "" {
		where = append(where, "topic = ?")
		args = append(args, f.Topic)
	}
	if f.Mastered != nil {
		where = append(where, "mastered = ?")
		args = append(args, *f.Mastered)
	}

	query := `SELECT ` + entryColumns + ` FROM items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.conn.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", mapError(err))
	}
	defer rows.Close()
	return scanEntries(rows)
}

// DeleteItem removes an item and its schedule.
func (db *DB) DeleteItem(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, db.rebind(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to delete item %d: %w", id, review.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (domain.Entry, error) {
	var (
		e                    domain.Entry
		kind, category, tags string
		createdAt, dueDate   string
		lastReviewed         sql.NullString
	)
	err := s.Scan(
		&e.Item.ID,
		&kind,
		&category,
		&e.Item.Topic,
		&e.Item.SubTopic,
		&e.Item.ErrorType,
		&e.Item.Prompt,
		&e.Item.Answer,
		&e.Item.Notes,
		&tags,
		&e.Item.Hash,
		&createdAt,
		&e.Schedule.RepetitionCount,
		&e.Schedule.EaseFactor,
		&e.Schedule.IntervalDays,
		&dueDate,
		&e.Schedule.Mastered,
		&lastReviewed,
		&e.Schedule.TotalAttempts,
		&e.Schedule.GotCorrect,
		&e.Schedule.Version,
	)
	if err != nil {
		return domain.Entry{}, err
	}

	e.Item.Kind = domain.Kind(kind)
	e.Item.Category = domain.Category(category)
	if err := json.Unmarshal([]byte(tags), &e.Item.Tags); err != nil {
		return domain.Entry{}, fmt.Errorf("bad tags on item %d: %w", e.Item.ID, err)
	}
	if e.Item.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return domain.Entry{}, fmt.Errorf("bad created_at on item %d: %w", e.Item.ID, err)
	}
	if e.Schedule.DueDate, err = domain.ParseDay(dueDate); err != nil {
		return domain.Entry{}, fmt.Errorf("bad due_date on item %d: %w", e.Item.ID, err)
	}
	if lastReviewed.Valid {
		t, err := time.Parse(timeLayout, lastReviewed.String)
		if err != nil {
			return domain.Entry{}, fmt.Errorf("bad last_reviewed_at on item %d: %w", e.Item.ID, err)
		}
		e.Schedule.LastReviewedAt = &t
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]domain.Entry, error) {
	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate item rows: %w", mapError(err))
	}
	return entries, nil
}
