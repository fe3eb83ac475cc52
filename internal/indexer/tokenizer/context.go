package tokenizer

import (
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/errors"
)

// Context holds the active Strategy. The zero value has no strategy and
// Tokenize fails until SetStrategy is called.
type Context struct {
	mu       sync.RWMutex
	strategy Strategy
}

func NewContext(s Strategy) *Context {
	return &Context{strategy: s}
}

// SetStrategy replaces the active strategy. Tokens already produced and
// index entries built from them are unaffected.
func (c *Context) SetStrategy(s Strategy) {
	c.mu.Lock()
	c.strategy = s
	c.mu.Unlock()
}

// Strategy returns the active strategy, or nil when none has been set.
func (c *Context) Strategy() Strategy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.strategy
}

func (c *Context) Tokenize(text string) ([]Token, error) {
	s := c.Strategy()
	if s == nil {
		return nil, apperrors.New(apperrors.ErrConfig, "no tokenizer strategy configured")
	}
	return s.Tokenize(text), nil
}
