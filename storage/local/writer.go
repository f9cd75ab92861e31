package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/logger"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
)

// Writer writes packages to files under a root directory. At most one write
// holds a given file open at a time; writers targeting a busy path wait until
// it is released. Packages matching an append filter are appended to their
// file followed by the separator, everything else replaces the file.
//
// Writer is safe for concurrent use.
type Writer struct {
	root      string
	appendIf  pack.Matcher
	separator []byte
	log       *logger.Logger

	mu   sync.Mutex
	open map[string]struct{}
	wake chan struct{}
}

// NewWriter creates a Writer, creating the root directory if needed.
func NewWriter(cfg *Config, log *logger.Logger) (*Writer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errors.IO("resolve", cfg.Root, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.IO("create", root, err)
	}
	return &Writer{
		root:      root,
		appendIf:  cfg.appendMatcher(),
		separator: []byte(cfg.Separator),
		log:       log.WithComponent("fs-sink"),
		open:      make(map[string]struct{}),
		wake:      make(chan struct{}),
	}, nil
}

// Root returns the absolute output directory.
func (w *Writer) Root() string { return w.root }

// Call writes p. It implements pipeline.Dest.
func (w *Writer) Call(ctx context.Context, p *pack.Package) error {
	return w.write(ctx, p.Path, w.appendIf.Match(p), &p.Body, func(f io.Writer) error {
		_, err := p.Body.CopyTo(ctx, f)
		return err
	})
}

// Work returns a Work that writes each package and passes it on.
func (w *Writer) Work() pipeline.WorkFunc[*pack.Package, *pack.Package] {
	return func(ctx context.Context, p *pack.Package) (*pack.Package, error) {
		if err := w.Call(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	}
}

// write opens the target and runs body against it. src, when set, is the
// body being written; if it reads from the target itself it is loaded into
// memory before the file is truncated or appended to.
func (w *Writer) write(ctx context.Context, rel string, appendMode bool, src *pack.Body, body func(io.Writer) error) (err error) {
	target, err := pack.Resolve(w.root, rel)
	if err != nil {
		return err
	}
	if err := w.acquire(ctx, target); err != nil {
		return err
	}
	defer w.release(target)

	if src != nil && readsFrom(src, target) {
		if err := src.Load(ctx); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.IO("create directory for", rel, err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(target, flags, 0o644)
	if err != nil {
		return errors.IO("open", rel, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.IO("close", rel, cerr)
		}
	}()

	if err := body(f); err != nil {
		return errors.IO("write", rel, err)
	}
	if appendMode && len(w.separator) > 0 {
		if _, err := f.Write(w.separator); err != nil {
			return errors.IO("write", rel, err)
		}
	}

	w.log.Debug("package written", logger.Fields(logger.FieldPath, rel, "append", appendMode))
	return nil
}

// readsFrom reports whether b is a file body backed by target.
func readsFrom(b *pack.Body, target string) bool {
	p, ok := b.FilePath()
	if !ok {
		return false
	}
	a, err := os.Stat(p)
	if err != nil {
		return false
	}
	t, err := os.Stat(target)
	if err != nil {
		return false
	}
	return os.SameFile(a, t)
}

// acquire marks target as open, waiting while another write holds it.
func (w *Writer) acquire(ctx context.Context, target string) error {
	for {
		w.mu.Lock()
		if _, busy := w.open[target]; !busy {
			w.open[target] = struct{}{}
			w.mu.Unlock()
			return nil
		}
		wake := w.wake
		w.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// release clears target and wakes every waiting write.
func (w *Writer) release(target string) {
	w.mu.Lock()
	delete(w.open, target)
	close(w.wake)
	w.wake = make(chan struct{})
	w.mu.Unlock()
}

// compile-time check
var _ pipeline.Dest[*pack.Package] = (*Writer)(nil)
