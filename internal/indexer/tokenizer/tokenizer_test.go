package tokenizer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/errors"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "WORD", Word.String())
	assert.Equal(t, "NUMBER", Number.String())
	assert.Equal(t, "PUNCTUATION", Punctuation.String())
	assert.Equal(t, "UNKNOWN", Kind(42).String())
}

func TestToken_String(t *testing.T) {
	assert.Equal(t, "[NUMBER: 123]", Token{Kind: Number, Text: "123"}.String())
}

func TestSimple_Tokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "drops punctuation and keeps digits as words",
			input: "abc 123 &",
			want:  []Token{{Word, "abc"}, {Word, "123"}},
		},
		{
			name:  "preserves casing",
			input: "Hello World",
			want:  []Token{{Word, "Hello"}, {Word, "World"}},
		},
		{
			name:  "underscore is a word character",
			input: "snake_case-value",
			want:  []Token{{Word, "snake_case"}, {Word, "value"}},
		},
		{
			name:  "leading and trailing separators",
			input: "  ...hello, world!  ",
			want:  []Token{{Word, "hello"}, {Word, "world"}},
		},
		{
			name:  "unicode letters stay together",
			input: "café naïve",
			want:  []Token{{Word, "café"}, {Word, "naïve"}},
		},
		{
			name:  "empty input",
			input: "",
			want:  []Token{},
		},
		{
			name:  "only separators",
			input: " \t\n&&",
			want:  []Token{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Simple{}.Tokenize(tt.input))
		})
	}
}

func TestAdvanced_Tokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "word number punctuation",
			input: "abc 123 &",
			want:  []Token{{Word, "abc"}, {Number, "123"}, {Punctuation, "&"}},
		},
		{
			name:  "sentence",
			input: "I like cats & dogs.",
			want: []Token{
				{Word, "I"}, {Word, "like"}, {Word, "cats"},
				{Punctuation, "&"}, {Word, "dogs"}, {Punctuation, "."},
			},
		},
		{
			name:  "word absorbs trailing digits",
			input: "abc123",
			want:  []Token{{Word, "abc123"}},
		},
		{
			name:  "digits win at the start of a run",
			input: "123abc",
			want:  []Token{{Number, "123"}, {Word, "abc"}},
		},
		{
			name:  "each punctuation character is its own token",
			input: "a+=b",
			want:  []Token{{Word, "a"}, {Punctuation, "+"}, {Punctuation, "="}, {Word, "b"}},
		},
		{
			name:  "underscore is a word",
			input: "_",
			want:  []Token{{Word, "_"}},
		},
		{
			name:  "non-ascii symbols are punctuation",
			input: "5€ «ok»",
			want: []Token{
				{Number, "5"}, {Punctuation, "€"},
				{Punctuation, "«"}, {Word, "ok"}, {Punctuation, "»"},
			},
		},
		{
			name:  "empty input",
			input: "",
			want:  []Token{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Advanced{}.Tokenize(tt.input))
		})
	}
}

func TestStrategies_ArePure(t *testing.T) {
	input := "Hello world 123, again 123!"
	for _, s := range []Strategy{Simple{}, Advanced{}} {
		t.Run(s.Name(), func(t *testing.T) {
			assert.Equal(t, s.Tokenize(input), s.Tokenize(input))
		})
	}
}

func TestLookup(t *testing.T) {
	s, err := Lookup("ADVANCED")
	require.NoError(t, err)
	assert.Equal(t, "advanced", s.Name())

	s, err = Lookup(" simple ")
	require.NoError(t, err)
	assert.Equal(t, "simple", s.Name())

	_, err = Lookup("stemming")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfig)
	assert.Contains(t, err.Error(), "advanced, simple")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"advanced", "simple"}, Names())
}

func TestContext_NoStrategy(t *testing.T) {
	var c Context
	_, err := c.Tokenize("hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfig)
	assert.Nil(t, c.Strategy())
}

func TestContext_SwapStrategy(t *testing.T) {
	c := NewContext(Simple{})
	tokens, err := c.Tokenize("abc 123 &")
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	c.SetStrategy(Advanced{})
	swapped, err := c.Tokenize("abc 123 &")
	require.NoError(t, err)
	require.Len(t, swapped, 3)

	// tokens produced earlier are unaffected by the swap
	assert.Equal(t, []Token{{Word, "abc"}, {Word, "123"}}, tokens)
}

func TestContext_ConcurrentSwap(t *testing.T) {
	c := NewContext(Simple{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.SetStrategy(Advanced{})
			c.SetStrategy(Simple{})
		}()
		go func() {
			defer wg.Done()
			tokens, err := c.Tokenize("abc 123")
			assert.NoError(t, err)
			assert.Len(t, tokens, 2)
		}()
	}
	wg.Wait()
}
