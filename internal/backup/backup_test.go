package backup

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/grestudy/internal/domain"
	"github.com/conorfennell/grestudy/internal/storage"
)

type fakeLister struct {
	entries []domain.Entry
	err     error
}

func (f fakeLister) ListItems(context.Context, storage.Filter) ([]domain.Entry, error) {
	return f.entries, f.err
}

func TestRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	now := time.Date(2025, 7, 4, 8, 0, 0, 0, time.UTC)
	store := fakeLister{entries: []domain.Entry{{
		Item:     domain.Item{ID: 1, Kind: domain.KindMistake, Category: domain.Quant, Prompt: "2+2"},
		Schedule: domain.NewScheduleState(now),
	}}}

	res, err := Run(context.Background(), store, dir, now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Items)
	assert.NotEmpty(t, res.Commit)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.True(t, now.Equal(snap.TakenAt))
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "2+2", snap.Items[0].Item.Prompt)

	again, err := Run(context.Background(), store, dir, now)
	require.NoError(t, err)
	assert.Empty(t, again.Commit, "unchanged snapshot makes no commit")

	_, err = os.Stat(filepath.Join(dir, ".git"))
	assert.NoError(t, err)
}

func TestRun_EmptyStore(t *testing.T) {
	res, err := Run(context.Background(), fakeLister{}, t.TempDir(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Items)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items": []`)
}

func TestRun_StoreError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(context.Background(), fakeLister{err: boom}, t.TempDir(), time.Now())
	assert.ErrorIs(t, err, boom)
}
