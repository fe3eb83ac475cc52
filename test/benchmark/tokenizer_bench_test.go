package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/internal/indexer/tokenizer"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `An inverted index maps every normalised token to the set of files that
        contain it. Indexing a directory walks each file, splits its content into
        tokens, lower-cases them and records the file's absolute path under each
        one. Queries are a single map lookup: 42 lookups cost about as much as 1.`,
	"long": strings.Repeat(`Tokenizers decide what a "word" is. The simple strategy splits on
        anything that is not a letter, digit or underscore; the advanced strategy
        also keeps numbers such as 2024 and punctuation like & or ! as their own
        tokens, so they can be queried too. Switching strategy clears the index and
        re-indexes every path (including sub-directories) from scratch. `, 20),
}

var strategies = []tokenizer.Strategy{tokenizer.Simple{}, tokenizer.Advanced{}}

func BenchmarkTokenize(b *testing.B) {
	for _, strategy := range strategies {
		for name, text := range sampleTexts {
			b.Run(strategy.Name()+"/"+name, func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(text)))
				for i := 0; i < b.N; i++ {
					tokens := strategy.Tokenize(text)
					_ = tokens
				}
			})
		}
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	ctx := tokenizer.NewContext(tokenizer.Advanced{})
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tokens, err := ctx.Tokenize(text)
			if err != nil {
				b.Fatal(err)
			}
			_ = tokens
		}
	})
}

func BenchmarkTokenizeVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "inverted index 123 & tokenizer strategy, "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := tokenizer.Advanced{}.Tokenize(text)
				_ = tokens
			}
		})
	}
}
