// Package chunker splits text into overlapping fixed-size word windows.
package chunker

import (
	"fmt"
	"strings"

	"github.com/poiesic/careerfit/core"
)

const (
	// DefaultSize is the number of words per chunk.
	DefaultSize = 500

	// DefaultOverlap is the number of words shared by consecutive chunks.
	DefaultOverlap = 50
)

// Split breaks text into windows of size words. Windows start at offsets
// 0, size-overlap, 2*(size-overlap), ... for every offset below the word
// count, so the final window may be shorter than size. Empty or
// whitespace-only text yields no chunks.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", core.ErrInvalidChunkConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be in [0,%d)", core.ErrInvalidChunkConfig, overlap, size)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}, nil
	}

	stride := size - overlap
	chunks := make([]string, 0, (len(words)+stride-1)/stride)
	for start := 0; start < len(words); start += stride {
		end := min(start+size, len(words))
		chunk := strings.Join(words[start:end], " ")
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

// Chunker holds a validated size/overlap configuration.
type Chunker struct {
	size    int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithSize sets the window size in words.
func WithSize(size int) Option {
	return func(c *Chunker) {
		c.size = size
	}
}

// WithOverlap sets the number of words shared by consecutive windows.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a Chunker, rejecting configurations where overlap >= size.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		size:    DefaultSize,
		overlap: DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.size <= 0 || c.overlap < 0 || c.overlap >= c.size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", core.ErrInvalidChunkConfig, c.size, c.overlap)
	}
	return c, nil
}

// Chunk splits text using the configured window.
func (c *Chunker) Chunk(text string) []string {
	chunks, _ := Split(text, c.size, c.overlap)
	return chunks
}

// Size returns the window size in words.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the window overlap in words.
func (c *Chunker) Overlap() int { return c.overlap }
