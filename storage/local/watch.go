package local

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
)

// Watch is an unbounded source yielding a package each time a matching file
// under Root is created or written. Directories created after the watch
// starts are watched as well. The source ends when ctx is done.
type Watch struct {
	Source
}

// NewWatch creates a Watch over root.
func NewWatch(root string, patterns ...string) *Watch {
	return &Watch{Source: Source{Root: root, Patterns: patterns}}
}

// Iter starts watching Root.
func (s *Watch) Iter(ctx context.Context) pipeline.Iterator[*pack.Package] {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return pipeline.Once[*pack.Package](nil, errors.Wrap(err, errors.CodeSource, "create watcher")).Iter(ctx)
	}
	it := &watchIter{src: s, w: w}
	if err := it.addTree(s.Root); err != nil {
		_ = w.Close()
		return pipeline.Once[*pack.Package](nil, err).Iter(ctx)
	}
	return it
}

type watchIter struct {
	src *Watch
	w   *fsnotify.Watcher
}

func (it *watchIter) Next(ctx context.Context) (*pack.Package, bool, error) {
	for {
		select {
		case ev, ok := <-it.w.Events:
			if !ok {
				return nil, false, nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			info, err := os.Stat(ev.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if ev.Has(fsnotify.Create) {
					if err := it.addTree(ev.Name); err != nil {
						return nil, false, err
					}
				}
				continue
			}
			rel, err := pack.Rel(it.src.Root, ev.Name)
			if err != nil || !it.src.matches(rel) {
				continue
			}
			p, err := it.src.open(rel)
			return p, err == nil, err
		case err, ok := <-it.w.Errors:
			if !ok {
				return nil, false, nil
			}
			return nil, false, errors.Wrap(err, errors.CodeSource, "watch")
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

func (it *watchIter) Close() error { return it.w.Close() }

func (it *watchIter) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.IO("watch", p, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := it.w.Add(p); err != nil {
			return errors.IO("watch", p, err)
		}
		return nil
	})
}
