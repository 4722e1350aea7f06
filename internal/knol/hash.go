package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/grestudy/internal/domain"
)

// Normalize concatenates the identifying content of an item after cleaning
// each part. A vocabulary word is identified by the word alone, so "Laconic"
// and "laconic " collide. A mistake is identified by its category, prompt and
// answer.
func Normalize(item domain.Item) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		p = strings.TrimSpace(p)
		return p
	}

	parts := []string{string(item.Kind)}
	if item.Kind == domain.KindVocabulary {
		parts = append(parts, normalizePart(item.Prompt))
	} else {
		parts = append(parts,
			normalizePart(string(item.Category)),
			normalizePart(item.Prompt),
			normalizePart(item.Answer),
		)
	}

	// Newline separation keeps "ab"+"c" distinct from "a"+"bc".
	return strings.Join(parts, "\n")
}

// Hash normalizes an item and returns its SHA-256 hash as a hex string.
func Hash(item domain.Item) string {
	normalized := Normalize(item)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}
