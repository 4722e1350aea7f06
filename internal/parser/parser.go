package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/grestudy/internal/domain"
)

const (
	promptPrefix   = "Q:"
	answerPrefix   = "A:"
	categoryPrefix = "C:"
	topicPrefix    = "T:"
	kindPrefix     = "K:"
	separator      = "---"
)

type state int

const (
	seeking state = iota
	readingPrompt
	readingAnswer
)

// Block is one item as written in a deck file, before validation.
type Block struct {
	Line     int
	Kind     string
	Category string
	Topic    string
	Prompt   string
	Answer   string
}

// Item converts the block into a domain item. The kind defaults to a mistake
// and the category is matched case-insensitively.
func (b Block) Item() (domain.Item, error) {
	kind := domain.KindMistake
	if b.Kind != "" {
		kind = domain.Kind(strings.ToLower(b.Kind))
		if !kind.IsValid() {
			return domain.Item{}, fmt.Errorf("line %d: unknown kind %q", b.Line, b.Kind)
		}
	}
	cat, err := domain.ParseCategory(b.Category)
	if err != nil {
		return domain.Item{}, fmt.Errorf("line %d: %w", b.Line, err)
	}
	return domain.Item{
		Kind:     kind,
		Category: cat,
		Topic:    b.Topic,
		Prompt:   b.Prompt,
		Answer:   b.Answer,
	}, nil
}

// ParseFile reads a file from the given path and extracts all blocks.
func ParseFile(path string) ([]Block, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all blocks. Prompts and answers
// may span several lines; category, topic and kind are single-line fields.
func Parse(r io.Reader) ([]Block, error) {
	scanner := bufio.NewScanner(r)
	var (
		blocks  []Block
		current Block
		lines   []string
		st      = seeking
		lineNo  int
	)

	flush := func() {
		content := strings.TrimSpace(strings.Join(lines, "\n"))
		switch st {
		case readingPrompt:
			current.Prompt = content
		case readingAnswer:
			current.Answer = content
		}
		lines = nil
		st = seeking
	}

	finish := func() {
		flush()
		if current.Prompt != "" {
			blocks = append(blocks, current)
		}
		current = Block{}
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if strings.TrimSpace(line) == separator {
			finish()
			continue
		}

		prefix, rest, ok := splitPrefix(line)
		if !ok {
			if st != seeking {
				lines = append(lines, line)
			}
			continue
		}

		flush()
		switch prefix {
		case promptPrefix:
			if current.Prompt != "" || current.Answer != "" {
				finish() // A new prompt always starts a new item
			}
			current.Line = lineNo
			st = readingPrompt
			lines = append(lines, rest)
		case answerPrefix:
			st = readingAnswer
			lines = append(lines, rest)
		case categoryPrefix:
			current.Category = strings.TrimSpace(rest)
		case topicPrefix:
			current.Topic = strings.TrimSpace(rest)
		case kindPrefix:
			current.Kind = strings.TrimSpace(rest)
		}
	}

	finish() // Finish the very last item in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return blocks, nil
}

func splitPrefix(line string) (prefix, rest string, ok bool) {
	for _, p := range []string{promptPrefix, answerPrefix, categoryPrefix, topicPrefix, kindPrefix} {
		if strings.HasPrefix(line, p) {
			return p, strings.TrimPrefix(line[len(p):], " "), true
		}
	}
	return "", "", false
}
