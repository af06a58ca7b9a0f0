package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/poiesic/careerfit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFilter_Match(t *testing.T) {
	f := Filter{Exclude: []string{"drafts/**", "*.tmp.md"}}

	assert.True(t, f.Match("resume.txt"))
	assert.True(t, f.Match("jobs/acme/posting.md"))
	assert.False(t, f.Match("photo.png"))
	assert.False(t, f.Match("drafts/old.txt"))
	assert.False(t, f.Match("notes.tmp.md"))
	assert.False(t, f.Match(".hidden/resume.txt"))

	only := Filter{Include: []string{"**/*.pdf"}}
	assert.True(t, only.Match("cv/resume.pdf"))
	assert.False(t, only.Match("cv/resume.txt"))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.txt"), "b")
	writeFile(t, filepath.Join(root, "a.md"), "a")
	writeFile(t, filepath.Join(root, "sub", "c.txt"), "c")
	writeFile(t, filepath.Join(root, ".git", "config.txt"), "x")
	writeFile(t, filepath.Join(root, "image.png"), "x")

	files, err := Scan(root, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.md"),
		filepath.Join(root, "b.txt"),
		filepath.Join(root, "sub", "c.txt"),
	}, files)

	single, err := Scan(filepath.Join(root, "b.txt"), Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "b.txt")}, single)

	_, err = Scan(filepath.Join(root, "missing"), Filter{})
	assert.Error(t, err)
}

func TestWatcher_HandleEvent(t *testing.T) {
	ix, _, _ := newTestIndex(t)
	root := t.TempDir()
	w, err := NewWatcher(ix, root, core.SourceCompany, Filter{})
	require.NoError(t, err)
	defer w.Close()

	file := filepath.Join(root, "profile.txt")
	writeFile(t, file, "culture")

	path, ok := w.handleEvent(fsnotify.Event{Name: file, Op: fsnotify.Create})
	assert.True(t, ok)
	assert.Equal(t, file, path)

	_, ok = w.handleEvent(fsnotify.Event{Name: file, Op: fsnotify.Chmod})
	assert.False(t, ok)

	_, ok = w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "gone.txt"), Op: fsnotify.Remove})
	assert.False(t, ok)

	png := filepath.Join(root, "logo.png")
	writeFile(t, png, "x")
	_, ok = w.handleEvent(fsnotify.Event{Name: png, Op: fsnotify.Write})
	assert.False(t, ok)

	dir := filepath.Join(root, "new")
	require.NoError(t, os.Mkdir(dir, 0o755))
	_, ok = w.handleEvent(fsnotify.Event{Name: dir, Op: fsnotify.Create})
	assert.False(t, ok)
	assert.Contains(t, w.fsw.WatchList(), dir)
}

func TestWatcher_Run(t *testing.T) {
	ix, _, _ := newTestIndex(t)
	root := t.TempDir()
	w, err := NewWatcher(ix, root, core.SourceCompany, Filter{})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexed := make(chan core.ContentHash, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(path string, hash core.ContentHash, err error) {
			if err == nil {
				indexed <- hash
			}
		})
	}()

	writeFile(t, filepath.Join(root, "company.txt"), "remote first engineering culture")

	// The create event may arrive before the content is written.
	want := core.HashContent("remote first engineering culture")
	for found := false; !found; {
		select {
		case hash := <-indexed:
			found = hash == want
		case <-ctx.Done():
			t.Fatal("file was not indexed")
		}
	}

	cancel()
	assert.NoError(t, <-done)
}
