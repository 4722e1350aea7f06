package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/grestudy/internal/domain"
	"github.com/conorfennell/grestudy/internal/logging"
	"github.com/conorfennell/grestudy/internal/storage"
)

const quantDeck = `Q: If 3x + 2 = 11, x = ?
A: 3
C: Quant
T: Algebra
---
Q: What is 15% of 80?
A: 12
C: quant
T: Percents
`

const verbalDeck = `Q: Laconic
A: Using very few words
C: Verbal
K: vocabulary
---
Q: laconic
A: terse
C: Verbal
K: vocabulary
---
Q: Broken
C: Writing
`

func writeDeck(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestImport_LocalDirectory(t *testing.T) {
	db, err := storage.Open(storage.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	dir := t.TempDir()
	writeDeck(t, dir, "quant.md", quantDeck)
	writeDeck(t, dir, "verbal/words.md", verbalDeck)
	writeDeck(t, dir, "README.txt", "Q: not a deck\nC: Quant")

	im := New(db, t.TempDir(), logging.Nop())
	ctx := context.Background()

	report, err := im.Import(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 5, report.Parsed)
	assert.Equal(t, 3, report.Inserted)
	assert.Equal(t, 1, report.Duplicates, "vocabulary words are case-insensitive")
	assert.Len(t, report.Errors, 1, "unknown category")

	entries, err := db.ListItems(ctx, storage.Filter{Category: domain.Quant})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	words, err := db.ListItems(ctx, storage.Filter{Kind: domain.KindVocabulary})
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "Laconic", words[0].Item.Prompt)

	t.Run("re-import is idempotent", func(t *testing.T) {
		again, err := im.Import(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, 0, again.Inserted)
		assert.Equal(t, 4, again.Duplicates)
	})
}

func TestImport_MissingDirectory(t *testing.T) {
	db, err := storage.Open(storage.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = New(db, t.TempDir(), logging.Nop()).Import(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestIsGitURL(t *testing.T) {
	testCases := []struct {
		source string
		want   bool
	}{
		{"https://github.com/user/decks.git", true},
		{"ssh://git@github.com/user/decks.git", true},
		{"git@github.com:user/decks.git", true},
		{"/home/user/decks", false},
		{"decks", false},
		{"./decks/gre", false},
	}

	for _, tc := range testCases {
		t.Run(tc.source, func(t *testing.T) {
			assert.Equal(t, tc.want, isGitURL(tc.source))
		})
	}
}

func TestGitURLToLocalPath(t *testing.T) {
	testCases := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://github.com/user/decks.git", filepath.Join("repos", "github.com", "user", "decks"), false},
		{"git@github.com:user/decks.git", filepath.Join("repos", "github.com", "user", "decks"), false},
		{"https://github.com", "", true},
		{"not a url", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			got, err := gitURLToLocalPath("repos", tc.url)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
