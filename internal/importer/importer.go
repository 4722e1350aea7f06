// Package importer loads markdown decks from a local directory or a git
// repository into the item store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/grestudy/internal/domain"
	"github.com/conorfennell/grestudy/internal/gitsource"
	"github.com/conorfennell/grestudy/internal/knol"
	"github.com/conorfennell/grestudy/internal/logging"
	"github.com/conorfennell/grestudy/internal/parser"
	"github.com/conorfennell/grestudy/internal/storage"
)

// Store is the subset of storage the importer writes to.
type Store interface {
	FindItemByHash(ctx context.Context, hash string) (*domain.Entry, error)
	CreateItem(ctx context.Context, item domain.Item, created time.Time) (domain.Entry, error)
}

// Report summarises one import run.
type Report struct {
	Source     string  `json:"source"`
	Files      int     `json:"files"`
	Parsed     int     `json:"parsed"`
	Inserted   int     `json:"inserted"`
	Duplicates int     `json:"duplicates"`
	Errors     []error `json:"-"`
}

// Importer reconciles deck sources with the store. Existing items are never
// updated or deleted, so their schedules survive edits to the deck.
type Importer struct {
	store    Store
	reposDir string
	log      *logging.Logger
	now      func() time.Time
}

// New creates an importer that clones git sources under reposDir.
func New(store Store, reposDir string, log *logging.Logger) *Importer {
	return &Importer{store: store, reposDir: reposDir, log: log, now: time.Now}
}

// Import reads every .md file under source, which is either a directory or a
// git URL. Per-item problems are collected in the report; the returned error
// is reserved for failures that stop the whole run.
func (im *Importer) Import(ctx context.Context, source string) (Report, error) {
	report := Report{Source: source}
	path := source

	if isGitURL(source) {
		localPath, err := gitURLToLocalPath(im.reposDir, source)
		if err != nil {
			return report, err
		}
		if err := os.MkdirAll(filepath.Dir(localPath), os.ModePerm); err != nil {
			return report, fmt.Errorf("failed to create repos directory: %w", err)
		}
		if err := gitsource.Sync(ctx, source, localPath, im.log); err != nil {
			return report, err
		}
		path = localPath
	}

	im.log.Info("importing decks", "source", source, "path", path)
	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		report.Files++
		return im.importFile(ctx, p, &report)
	})
	if walkErr != nil {
		return report, fmt.Errorf("failed to walk %s: %w", path, walkErr)
	}

	im.log.Info("import complete",
		"source", source,
		"files", report.Files,
		"parsed", report.Parsed,
		"inserted", report.Inserted,
		"duplicates", report.Duplicates,
		"errors", len(report.Errors),
	)
	return report, nil
}

func (im *Importer) importFile(ctx context.Context, path string, report *Report) error {
	blocks, err := parser.ParseFile(path)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, err))
		return nil
	}

	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Parsed++

		item, err := b.Item()
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("%s: %w", path, err))
			continue
		}
		item.Hash = knol.Hash(item)

		existing, err := im.store.FindItemByHash(ctx, item.Hash)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("db check for %s: %w", item.Hash, err))
			continue
		}
		if existing != nil {
			report.Duplicates++
			continue
		}

		if _, err := im.store.CreateItem(ctx, item, im.now()); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				report.Duplicates++
				continue
			}
			report.Errors = append(report.Errors, fmt.Errorf("db insert for %s: %w", item.Hash, err))
			continue
		}
		im.log.Debug("item imported", "hash", item.Hash, "category", item.Category)
		report.Inserted++
	}
	return nil
}

func isGitURL(source string) bool {
	if u, err := url.Parse(source); err == nil && u.Host != "" {
		switch u.Scheme {
		case "http", "https", "ssh", "git":
			return true
		}
	}
	// scp-like syntax: git@github.com:user/repo.git
	at, colon := strings.Index(source, "@"), strings.Index(source, ":")
	return at > 0 && colon > at
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || parsedURL.Host == "" {
		if at := strings.Index(repoURL, "@"); at > 0 {
			hostAndPath := repoURL[at+1:]
			if host, repoPath, ok := strings.Cut(hostAndPath, ":"); ok && host != "" && repoPath != "" {
				return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	if strings.Trim(sanitizedPath, "/") == "" {
		return "", fmt.Errorf("git URL has no repository path: %s", repoURL)
	}
	return filepath.Join(baseDir, parsedURL.Hostname(), sanitizedPath), nil
}
