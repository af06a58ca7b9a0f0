// Package extract turns document files into plain text.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv/v2"
	"github.com/poiesic/careerfit/core"
)

// Reader reads the text content of files it recognizes.
type Reader interface {
	CanRead(path string) bool
	ReadText(path string) (string, error)
}

func extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// TextReader reads plain text and markdown files.
type TextReader struct{}

func (r *TextReader) CanRead(path string) bool {
	ext := extension(path)
	return ext == ".txt" || ext == ".md"
}

func (r *TextReader) ReadText(path string) (string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading text file: %w", core.ErrExtraction, err)
	}
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", core.ErrExtraction, path)
	}
	return string(buf), nil
}

// DocconvReader converts office and PDF documents with docconv.
type DocconvReader struct{}

func (r *DocconvReader) CanRead(path string) bool {
	switch extension(path) {
	case ".pdf", ".docx", ".odt", ".rtf", ".html", ".htm", ".xml":
		return true
	}
	return false
}

func (r *DocconvReader) ReadText(path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", fmt.Errorf("%w: converting %s: %w", core.ErrExtraction, filepath.Base(path), err)
	}
	return res.Body, nil
}

// Extractor dispatches to the first Reader that accepts a path.
type Extractor struct {
	readers []Reader
}

// New returns an Extractor over readers, or over the text and docconv
// readers when none are given.
func New(readers ...Reader) *Extractor {
	if len(readers) == 0 {
		readers = []Reader{&TextReader{}, &DocconvReader{}}
	}
	return &Extractor{readers: readers}
}

// CanRead reports whether any reader accepts path.
func (e *Extractor) CanRead(path string) bool {
	for _, r := range e.readers {
		if r.CanRead(path) {
			return true
		}
	}
	return false
}

// ReadText extracts the text of path. Every failure wraps core.ErrExtraction.
func (e *Extractor) ReadText(path string) (string, error) {
	for _, r := range e.readers {
		if r.CanRead(path) {
			return r.ReadText(path)
		}
	}
	return "", fmt.Errorf("%w: unsupported file type %q", core.ErrExtraction, extension(path))
}
