package index

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude matches the document formats the extractor understands.
var DefaultInclude = []string{"**/*.txt", "**/*.md", "**/*.pdf", "**/*.docx", "**/*.odt", "**/*.rtf"}

// Filter decides which files under a root are indexed. Patterns use
// doublestar syntax and are matched against slash-separated paths relative
// to the root and against the base name.
type Filter struct {
	Include []string
	Exclude []string
}

// Match reports whether relPath passes the filter. Hidden files and
// directories never match.
func (f Filter) Match(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, part := range strings.Split(relPath, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return false
		}
	}

	base := filepath.Base(relPath)
	for _, pattern := range f.Exclude {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return false
		}
		if matched, _ := doublestar.Match(pattern, base); matched {
			return false
		}
	}

	include := f.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	for _, pattern := range include {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// Scan walks root and returns the files accepted by filter in lexical order.
// A root that is a file is returned as-is when it matches.
func Scan(root string, filter Filter) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root && !d.IsDir() {
			if filter.Match(d.Name()) {
				files = append(files, path)
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if rel != "." && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filter.Match(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
