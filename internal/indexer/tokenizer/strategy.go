package tokenizer

import (
	"regexp"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/errors"
)

// Word characters are Unicode letters, combining marks, decimal digits and
// connector punctuation such as '_'. Punctuation is any single punctuation or
// symbol rune that is not a word character.
const (
	wordClass  = `\p{L}\p{M}\p{Nd}\p{Pc}`
	digitClass = `\p{Nd}`
	punctClass = `\p{P}\p{S}`
)

var (
	nonWordRun = regexp.MustCompile(`[^` + wordClass + `]+`)
	// Alternation is leftmost-first: a digit run wins over a word run that
	// starts at the same position, so "123abc" yields NUMBER then WORD.
	tokenPattern = regexp.MustCompile(`[` + digitClass + `]+|[` + wordClass + `]+|[` + punctClass + `]`)
	digitsOnly   = regexp.MustCompile(`^[` + digitClass + `]+$`)
	wordsOnly    = regexp.MustCompile(`^[` + wordClass + `]+$`)
)

// Strategy transforms text into tokens. Implementations must be pure: no
// hidden state and no I/O.
type Strategy interface {
	Name() string
	Tokenize(text string) []Token
}

// Simple splits on runs of non-word characters and emits every fragment as
// a WORD.
type Simple struct{}

func (Simple) Name() string { return "simple" }

func (Simple) Tokenize(text string) []Token {
	parts := nonWordRun.Split(text, -1)
	tokens := make([]Token, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		tokens = append(tokens, Token{Kind: Word, Text: part})
	}
	return tokens
}

// Advanced classifies digit runs as NUMBER, word runs as WORD and single
// punctuation or symbol characters as PUNCTUATION. Whitespace is skipped.
type Advanced struct{}

func (Advanced) Name() string { return "advanced" }

func (Advanced) Tokenize(text string) []Token {
	matches := tokenPattern.FindAllString(text, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, Token{Kind: classify(m), Text: m})
	}
	return tokens
}

func classify(match string) Kind {
	switch {
	case digitsOnly.MatchString(match):
		return Number
	case wordsOnly.MatchString(match):
		return Word
	default:
		return Punctuation
	}
}

var registry = map[string]func() Strategy{
	"simple":   func() Strategy { return Simple{} },
	"advanced": func() Strategy { return Advanced{} },
}

// Lookup returns the strategy registered under name, ignoring case.
func Lookup(name string) (Strategy, error) {
	factory, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrConfig, "unknown tokenizer strategy %q (valid: %s)",
			name, strings.Join(Names(), ", "))
	}
	return factory(), nil
}

// Names lists the registered strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
