// Package tokenizer turns raw text into typed tokens. Strategies are pure
// functions of their input and are swapped at runtime through a Context.
// Tokens keep their original casing; normalisation happens in the index.
package tokenizer

import "fmt"

// Kind classifies a token.
type Kind int

const (
	Word Kind = iota
	Number
	Punctuation
)

func (k Kind) String() string {
	switch k {
	case Word:
		return "WORD"
	case Number:
		return "NUMBER"
	case Punctuation:
		return "PUNCTUATION"
	default:
		return "UNKNOWN"
	}
}

// Token is an immutable (kind, text) pair produced by a Strategy.
type Token struct {
	Kind Kind
	Text string
}

func (t Token) String() string {
	return fmt.Sprintf("[%s: %s]", t.Kind, t.Text)
}
