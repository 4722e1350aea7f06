package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/grestudy/internal/domain"
	"github.com/conorfennell/grestudy/internal/logging"
	"github.com/conorfennell/grestudy/internal/queue"
	"github.com/conorfennell/grestudy/internal/sm2"
)

var (
	// ErrNotFound means the item has no schedule state.
	ErrNotFound = errors.New("item not found")
	// ErrConcurrentModification means the schedule changed between load and
	// save. The caller may retry the whole submission.
	ErrConcurrentModification = errors.New("schedule was modified concurrently")
	// ErrAlreadyMastered means the item is retired and takes no more reviews.
	ErrAlreadyMastered = errors.New("item is already mastered")
	// ErrStorageUnavailable wraps transient storage failures such as timeouts.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Repository is the storage the coordinator depends on.
type Repository interface {
	LoadScheduleState(ctx context.Context, itemID int64) (domain.ScheduleState, error)
	// SaveScheduleState stores state only if the stored version still equals
	// expectedVersion, returning ErrConcurrentModification otherwise.
	SaveScheduleState(ctx context.Context, itemID int64, state domain.ScheduleState, expectedVersion int64) error
	QueryDueItems(ctx context.Context, category domain.Category, asOf time.Time) ([]domain.Entry, error)
}

// Coordinator is the single writer of schedule state.
type Coordinator struct {
	repo    Repository
	params  *sm2.Params
	timeout time.Duration
	now     func() time.Time
	log     *logging.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout bounds each operation's storage work.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithParams overrides the SM-2 parameters.
func WithParams(p *sm2.Params) Option {
	return func(c *Coordinator) { c.params = p }
}

// NewCoordinator creates a coordinator over repo.
func NewCoordinator(repo Repository, opts ...Option) *Coordinator {
	c := &Coordinator{
		repo:    repo,
		params:  sm2.DefaultParams(),
		timeout: 5 * time.Second,
		now:     time.Now,
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitReview records a review of the given quality for an item and returns
// the new schedule. A quality score is applied at most once: if the schedule
// changed since it was loaded, ErrConcurrentModification is returned and
// nothing is written.
func (c *Coordinator) SubmitReview(ctx context.Context, itemID int64, quality sm2.Quality) (domain.ScheduleState, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	current, err := c.repo.LoadScheduleState(ctx, itemID)
	if err != nil {
		return domain.ScheduleState{}, classify("load schedule", itemID, err)
	}
	if current.Mastered && quality.IsValid() {
		return domain.ScheduleState{}, fmt.Errorf("item %d: %w", itemID, ErrAlreadyMastered)
	}

	next, err := c.params.ComputeNext(current, quality, c.now())
	if err != nil {
		return domain.ScheduleState{}, err
	}
	next.Version = current.Version + 1

	if err := c.repo.SaveScheduleState(ctx, itemID, next, current.Version); err != nil {
		return domain.ScheduleState{}, classify("save schedule", itemID, err)
	}

	c.log.Debug("review recorded",
		"item_id", itemID,
		"quality", int(quality),
		"repetitions", next.RepetitionCount,
		"interval_days", next.IntervalDays,
		"ease_factor", next.EaseFactor,
		"mastered", next.Mastered,
	)
	if next.Mastered {
		c.log.Info("item mastered", "item_id", itemID, "attempts", next.TotalAttempts)
	}
	return next, nil
}

// ResetItem returns a mastered (or in-progress) item to the start of its
// schedule, due today.
func (c *Coordinator) ResetItem(ctx context.Context, itemID int64) (domain.ScheduleState, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	current, err := c.repo.LoadScheduleState(ctx, itemID)
	if err != nil {
		return domain.ScheduleState{}, classify("load schedule", itemID, err)
	}

	next := current.Reset(c.now())
	next.Version = current.Version + 1
	if err := c.repo.SaveScheduleState(ctx, itemID, next, current.Version); err != nil {
		return domain.ScheduleState{}, classify("save schedule", itemID, err)
	}
	c.log.Info("schedule reset", "item_id", itemID, "was_mastered", current.Mastered)
	return next, nil
}

// TodayReviews returns the review queue for the given day.
func (c *Coordinator) TodayReviews(ctx context.Context, today time.Time) (queue.Queue, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var entries []domain.Entry
	for _, cat := range domain.Categories {
		due, err := c.repo.QueryDueItems(ctx, cat, domain.Day(today))
		if err != nil {
			if isTransient(err) {
				err = errors.Join(ErrStorageUnavailable, err)
			}
			return queue.Queue{}, fmt.Errorf("failed to query due %s items: %w", cat, err)
		}
		entries = append(entries, due...)
	}
	return queue.BuildTodayQueue(today, entries), nil
}

func (c *Coordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// classify wraps a repository error, tagging timeouts as transient.
func classify(op string, itemID int64, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConcurrentModification), errors.Is(err, ErrStorageUnavailable):
		return fmt.Errorf("%s for item %d: %w", op, itemID, err)
	case isTransient(err):
		return fmt.Errorf("%s for item %d: %w", op, itemID, errors.Join(ErrStorageUnavailable, err))
	default:
		return fmt.Errorf("%s for item %d: %w", op, itemID, err)
	}
}

func isTransient(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
