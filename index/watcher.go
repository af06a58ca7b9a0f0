// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/poiesic/careerfit/core"
)

// IndexedFunc is called after each watched file has been processed.
type IndexedFunc func(path string, hash core.ContentHash, err error)

// Watcher indexes files as they are created or written under a directory
// tree. Removals are ignored: indexed chunks are immutable.
type Watcher struct {
	index      *DocumentIndex
	root       string
	sourceType core.SourceType
	filter     Filter
	fsw        *fsnotify.Watcher
	logger     *slog.Logger
}

// NewWatcher watches root and every non-hidden directory below it.
func NewWatcher(ix *DocumentIndex, root string, sourceType core.SourceType, filter Filter) (*Watcher, error) {
	if ix == nil {
		return nil, ErrIndexRequired
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		index:      ix,
		root:       root,
		sourceType: sourceType,
		filter:     filter,
		fsw:        fsw,
		logger:     ix.logger.With("watcher", root),
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Run processes events until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context, onIndexed IndexedFunc) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			path, ok := w.handleEvent(event)
			if !ok {
				continue
			}
			hash, err := w.index.IndexFile(ctx, path, w.sourceType)
			if err != nil {
				w.logger.Warn("failed to index file", "path", path, "err", err)
			}
			if onIndexed != nil {
				onIndexed(path, hash, err)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "err", err)
		}
	}
}

// handleEvent returns the file to index for event, if any. Newly created
// directories are added to the watch list.
func (w *Watcher) handleEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && !strings.HasPrefix(info.Name(), ".") {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch directory", "path", event.Name, "err", err)
			}
		}
		return "", false
	}
	if !w.filter.Match(rel) || !w.index.CanRead(event.Name) {
		return "", false
	}
	return event.Name, true
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
