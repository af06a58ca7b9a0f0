package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/careerfit/ai"
	"github.com/poiesic/careerfit/websearch"
)

// DefaultCallTimeout bounds one attempt of an external call.
const DefaultCallTimeout = 60 * time.Second

// Caller wraps the external collaborators with a per-attempt timeout and
// bounded retries. A timed-out attempt counts as a failed one.
type Caller struct {
	generator ai.Generator
	web       websearch.Searcher
	timeout   time.Duration
	backoff   Backoff
	logger    *slog.Logger
}

// CallerOption configures a Caller.
type CallerOption func(*Caller) error

// WithCallTimeout bounds each attempt. Zero disables the bound.
func WithCallTimeout(timeout time.Duration) CallerOption {
	return func(c *Caller) error {
		if timeout < 0 {
			return fmt.Errorf("call timeout must not be negative: %s", timeout)
		}
		c.timeout = timeout
		return nil
	}
}

// WithBackoff sets the retry policy.
func WithBackoff(b Backoff) CallerOption {
	return func(c *Caller) error {
		if b.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		c.backoff = b
		return nil
	}
}

// WithWebSearch sets the web searcher. The default returns no results.
func WithWebSearch(web websearch.Searcher) CallerOption {
	return func(c *Caller) error {
		if web != nil {
			c.web = web
		}
		return nil
	}
}

// WithCallerLogger sets a custom logger.
func WithCallerLogger(logger *slog.Logger) CallerOption {
	return func(c *Caller) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "caller")
		return nil
	}
}

// NewCaller creates a Caller around generator.
func NewCaller(generator ai.Generator, opts ...CallerOption) (*Caller, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	c := &Caller{
		generator: generator,
		web:       websearch.Noop{},
		timeout:   DefaultCallTimeout,
		backoff:   DefaultBackoff(),
		logger:    slog.Default().With("component", "caller"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Generate returns the generator's text for prompt.
func (c *Caller) Generate(ctx context.Context, prompt string) (string, error) {
	return call(ctx, c, "generate", func(ctx context.Context) (string, error) {
		return c.generator.Generate(ctx, prompt)
	})
}

// WebSearch returns up to maxResults web results for query.
func (c *Caller) WebSearch(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
	return call(ctx, c, "websearch", func(ctx context.Context) ([]websearch.Result, error) {
		return c.web.Search(ctx, query, maxResults)
	})
}

func call[T any](ctx context.Context, c *Caller, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	start := time.Now()
	err := c.backoff.Retry(ctx, func(ctx context.Context) error {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		c.logger.Debug("external call failed", "op", op, "elapsed", time.Since(start), "error", err)
		var zero T
		return zero, err
	}
	return result, nil
}
