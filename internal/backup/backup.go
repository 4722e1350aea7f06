// Package backup writes a JSON snapshot of every item and schedule into a git
// repository, one commit per run.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/conorfennell/grestudy/internal/domain"
	"github.com/conorfennell/grestudy/internal/gitsource"
	"github.com/conorfennell/grestudy/internal/storage"
)

// FileName is the snapshot file inside the backup repository.
const FileName = "items.json"

// Lister is the storage read the backup needs.
type Lister interface {
	ListItems(ctx context.Context, f storage.Filter) ([]domain.Entry, error)
}

// Snapshot is the on-disk backup document.
type Snapshot struct {
	TakenAt time.Time      `json:"taken_at"`
	Items   []domain.Entry `json:"items"`
}

// Result describes a finished backup. Commit is empty when nothing changed
// since the previous backup.
type Result struct {
	Path   string
	Items  int
	Commit string
}

// Run writes the snapshot to dir and commits it.
func Run(ctx context.Context, store Lister, dir string, now time.Time) (Result, error) {
	entries, err := store.ListItems(ctx, storage.Filter{})
	if err != nil {
		return Result{}, fmt.Errorf("failed to read items for backup: %w", err)
	}
	if entries == nil {
		entries = []domain.Entry{}
	}

	data, err := json.MarshalIndent(Snapshot{TakenAt: now.UTC(), Items: entries}, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create backup dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return Result{}, fmt.Errorf("failed to write snapshot: %w", err)
	}

	res := Result{Path: path, Items: len(entries)}
	msg := fmt.Sprintf("Backup of %d items at %s", len(entries), now.UTC().Format(time.RFC3339))
	res.Commit, err = gitsource.Commit(dir, FileName, msg, now)
	if err != nil && !errors.Is(err, gitsource.ErrNothingToCommit) {
		return Result{}, err
	}
	return res, nil
}
