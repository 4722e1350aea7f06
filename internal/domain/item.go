package domain

import (
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes the two things a learner tracks.
type Kind string

const (
	KindMistake    Kind = "mistake"
	KindVocabulary Kind = "vocabulary"
)

// IsValid reports whether k is a known item kind.
func (k Kind) IsValid() bool {
	return k == KindMistake || k == KindVocabulary
}

// Category is the study track an item belongs to.
type Category string

const (
	Quant  Category = "Quant"
	Verbal Category = "Verbal"
)

// Categories lists every study track in display order.
var Categories = []Category{Quant, Verbal}

// IsValid reports whether c is one of the known study tracks.
func (c Category) IsValid() bool {
	return c == Quant || c == Verbal
}

// ParseCategory accepts a category name in any letter case.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Item is a tracked missed question or vocabulary word.
// The scheduler only ever looks at ID and Category.
type Item struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"kind"`
	Category  Category  `json:"category"`
	Topic     string    `json:"topic,omitempty"`
	SubTopic  string    `json:"sub_topic,omitempty"`
	ErrorType string    `json:"error_type,omitempty"`
	Prompt    string    `json:"prompt"`
	Answer    string    `json:"answer,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Hash      string    `json:"hash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry pairs an item with its schedule, as returned by due-item queries.
type Entry struct {
	Item     Item          `json:"item"`
	Schedule ScheduleState `json:"schedule"`
}
