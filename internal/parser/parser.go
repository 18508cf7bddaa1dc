// Package parser reads vocabulary decks written in markdown.
//
// A card starts with "W:" (the word) and may carry "M:" (its meaning) and
// "E:" (an example sentence). Lines without a prefix continue the current
// field. A line holding only "---" or a new "W:" closes the card.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/knolreview/internal/domain"
)

type field int

const (
	none field = iota
	word
	meaning
	example
)

var prefixes = []struct {
	prefix string
	field  field
}{
	{"W:", word},
	{"M:", meaning},
	{"E:", example},
}

// ParseFile reads a deck from path.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

type builder struct {
	cards   []domain.Card
	current domain.Card
	field   field
	block   []string
}

func (b *builder) flushField() {
	content := strings.TrimRight(strings.Join(b.block, "\n"), " \t\n")
	b.block = nil
	switch b.field {
	case word:
		b.current.Word = content
	case meaning:
		b.current.Meaning = content
	case example:
		b.current.Example = content
	}
}

func (b *builder) finishCard() {
	b.flushField()
	if b.current.Word != "" {
		b.cards = append(b.cards, b.current)
	}
	b.current = domain.Card{}
	b.field = none
}

// Parse extracts all cards from r. Cards without a word are dropped.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	b := &builder{}

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "---" {
			b.finishCard()
			continue
		}

		matched := false
		for _, p := range prefixes {
			if !strings.HasPrefix(line, p.prefix) {
				continue
			}
			matched = true
			if p.field == word && b.field != none {
				b.finishCard()
			} else {
				b.flushField()
			}
			b.field = p.field
			b.block = append(b.block, strings.TrimPrefix(line[len(p.prefix):], " "))
			break
		}
		if !matched && b.field != none {
			b.block = append(b.block, line)
		}
	}

	b.finishCard()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.cards, nil
}
