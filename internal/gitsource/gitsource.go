package gitsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/conorfennell/grestudy/internal/logging"
)

// ErrNothingToCommit is returned by Commit when the file is unchanged.
var ErrNothingToCommit = errors.New("nothing to commit")

// Sync clones a git repository if it doesn't exist at the given path,
// or pulls the latest changes if it does.
func Sync(ctx context.Context, url, localPath string, log *logging.Logger) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		log.Info("cloning deck repository", "url", url, "path", localPath)
		if _, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{URL: url}); err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
	case err == nil:
		log.Info("pulling deck repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}

		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}

		err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}
	return nil
}

// Commit records the file at dir/name in the repository at dir, initialising
// the repository on first use. It returns the new commit hash.
func Commit(dir, name, message string, when time.Time) (string, error) {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return "", fmt.Errorf("failed to open backup repo at %s: %w", dir, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree for repo at %s: %w", dir, err)
	}
	if _, err := worktree.Add(filepath.ToSlash(name)); err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", name, err)
	}

	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("failed to read status of %s: %w", dir, err)
	}
	if status.IsClean() {
		return "", ErrNothingToCommit
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "grestudy", Email: "grestudy@localhost", When: when},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit %s: %w", name, err)
	}
	return hash.String(), nil
}
