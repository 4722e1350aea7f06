package review

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/grestudy/internal/domain"
	"github.com/conorfennell/grestudy/internal/sm2"
)

// memRepo is an in-memory Repository with the same compare-and-set
// semantics as the SQL store.
type memRepo struct {
	mu       sync.Mutex
	items    map[int64]domain.Item
	states   map[int64]domain.ScheduleState
	saves    int
	loadHook func()
	saveErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{
		items:  make(map[int64]domain.Item),
		states: make(map[int64]domain.ScheduleState),
	}
}

func (r *memRepo) add(id int64, cat domain.Category, s domain.ScheduleState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id] = domain.Item{ID: id, Category: cat}
	r.states[id] = s
}

func (r *memRepo) LoadScheduleState(ctx context.Context, id int64) (domain.ScheduleState, error) {
	r.mu.Lock()
	s, ok := r.states[id]
	hook := r.loadHook
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return domain.ScheduleState{}, err
	}
	if !ok {
		return domain.ScheduleState{}, ErrNotFound
	}
	return s, nil
}

func (r *memRepo) SaveScheduleState(ctx context.Context, id int64, s domain.ScheduleState, expected int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	cur, ok := r.states[id]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != expected {
		return ErrConcurrentModification
	}
	r.states[id] = s
	r.saves++
	return nil
}

func (r *memRepo) QueryDueItems(ctx context.Context, cat domain.Category, asOf time.Time) ([]domain.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Entry
	for id, it := range r.items {
		s := r.states[id]
		if it.Category == cat && !s.Mastered && s.IsDue(asOf) {
			out = append(out, domain.Entry{Item: it, Schedule: s})
		}
	}
	return out, nil
}

var now = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestCoordinator(repo Repository) *Coordinator {
	return NewCoordinator(repo, WithClock(func() time.Time { return now }), WithTimeout(time.Second))
}

func TestSubmitReview_AppliesEngineAndBumpsVersion(t *testing.T) {
	repo := newMemRepo()
	repo.add(1, domain.Quant, domain.NewScheduleState(now))
	c := newTestCoordinator(repo)

	got, err := c.SubmitReview(context.Background(), 1, sm2.Hesitant)
	require.NoError(t, err)

	assert.Equal(t, 1, got.RepetitionCount)
	assert.Equal(t, 1, got.IntervalDays)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, domain.Day(now).AddDate(0, 0, 1), got.DueDate)
	assert.Equal(t, got, repo.states[1])
}

func TestSubmitReview_NotFound(t *testing.T) {
	c := newTestCoordinator(newMemRepo())

	_, err := c.SubmitReview(context.Background(), 99, sm2.Perfect)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitReview_InvalidQualityWritesNothing(t *testing.T) {
	repo := newMemRepo()
	repo.add(1, domain.Quant, domain.NewScheduleState(now))
	c := newTestCoordinator(repo)

	_, err := c.SubmitReview(context.Background(), 1, sm2.Quality(6))
	require.ErrorIs(t, err, sm2.ErrInvalidQualityScore)
	assert.Equal(t, 0, repo.saves)
	assert.Equal(t, int64(1), repo.states[1].Version)
}

func TestSubmitReview_AlreadyMastered(t *testing.T) {
	repo := newMemRepo()
	s := domain.NewScheduleState(now)
	s.RepetitionCount, s.Mastered = 5, true
	repo.add(1, domain.Verbal, s)
	c := newTestCoordinator(repo)

	_, err := c.SubmitReview(context.Background(), 1, sm2.Perfect)
	assert.ErrorIs(t, err, ErrAlreadyMastered)
	assert.Equal(t, 0, repo.saves)
}

func TestSubmitReview_MasteryAfterFivePasses(t *testing.T) {
	repo := newMemRepo()
	repo.add(1, domain.Quant, domain.NewScheduleState(now))
	c := newTestCoordinator(repo)
	ctx := context.Background()

	var got domain.ScheduleState
	for i := 0; i < 5; i++ {
		var err error
		got, err = c.SubmitReview(ctx, 1, sm2.Hesitant)
		require.NoError(t, err)
	}
	assert.True(t, got.Mastered)
	assert.Equal(t, int64(6), got.Version)

	q, err := c.TodayReviews(ctx, now.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, q.Len(), "mastered items never queue")
}

func TestSubmitReview_ConcurrentSameItem(t *testing.T) {
	repo := newMemRepo()
	repo.add(1, domain.Quant, domain.NewScheduleState(now))

	// Both submissions load before either saves.
	var loaded sync.WaitGroup
	loaded.Add(2)
	repo.loadHook = func() {
		loaded.Done()
		loaded.Wait()
	}
	c := newTestCoordinator(repo)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.SubmitReview(context.Background(), 1, sm2.Perfect)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConcurrentModification):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 1, repo.states[1].RepetitionCount, "the score is applied once")
	assert.Equal(t, int64(2), repo.states[1].Version)
}

func TestSubmitReview_DifferentItemsIndependent(t *testing.T) {
	repo := newMemRepo()
	for id := int64(1); id <= 20; id++ {
		repo.add(id, domain.Quant, domain.NewScheduleState(now))
	}
	c := newTestCoordinator(repo)

	var wg sync.WaitGroup
	for id := int64(1); id <= 20; id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := c.SubmitReview(context.Background(), id, sm2.Difficult)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()
	assert.Equal(t, 20, repo.saves)
}

func TestSubmitReview_TimeoutIsTransient(t *testing.T) {
	repo := newMemRepo()
	repo.add(1, domain.Quant, domain.NewScheduleState(now))
	repo.loadHook = func() { time.Sleep(50 * time.Millisecond) }
	c := NewCoordinator(repo, WithClock(func() time.Time { return now }), WithTimeout(5*time.Millisecond))

	_, err := c.SubmitReview(context.Background(), 1, sm2.Perfect)
	require.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, repo.saves)
}

func TestSubmitReview_SaveErrorPropagates(t *testing.T) {
	repo := newMemRepo()
	repo.add(1, domain.Quant, domain.NewScheduleState(now))
	boom := errors.New("disk full")
	repo.saveErr = boom
	c := newTestCoordinator(repo)

	_, err := c.SubmitReview(context.Background(), 1, sm2.Perfect)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrStorageUnavailable)
}

func TestResetItem(t *testing.T) {
	repo := newMemRepo()
	s := domain.NewScheduleState(now.AddDate(0, -2, 0))
	s.RepetitionCount, s.Mastered, s.IntervalDays, s.Version = 5, true, 95, 6
	repo.add(1, domain.Verbal, s)
	c := newTestCoordinator(repo)
	ctx := context.Background()

	got, err := c.ResetItem(ctx, 1)
	require.NoError(t, err)
	assert.False(t, got.Mastered)
	assert.Equal(t, 0, got.RepetitionCount)
	assert.Equal(t, 1, got.IntervalDays)
	assert.Equal(t, int64(7), got.Version)

	q, err := c.TodayReviews(ctx, now)
	require.NoError(t, err)
	require.Len(t, q.Verbal, 1)
	assert.Equal(t, int64(1), q.Verbal[0].ID)

	_, err = c.SubmitReview(ctx, 1, sm2.Perfect)
	assert.NoError(t, err)
}

func TestTodayReviews(t *testing.T) {
	repo := newMemRepo()
	old := domain.NewScheduleState(now.AddDate(0, 0, -10))
	repo.add(3, domain.Quant, domain.NewScheduleState(now))
	repo.add(2, domain.Quant, old)
	repo.add(1, domain.Verbal, domain.NewScheduleState(now.AddDate(0, 0, 2)))
	c := newTestCoordinator(repo)

	q, err := c.TodayReviews(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, q.Quant, 2)
	assert.Equal(t, int64(2), q.Quant[0].ID)
	assert.Equal(t, int64(3), q.Quant[1].ID)
	assert.Empty(t, q.Verbal)
}
