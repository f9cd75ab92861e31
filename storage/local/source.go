package local

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
)

// walkBuffer bounds how far the directory walk runs ahead of the consumer.
const walkBuffer = 32

// Source enumerates the files under Root. Each matching file becomes a
// package whose path is relative to Root and whose body is the unread file.
type Source struct {
	Root string
	// Patterns are globs matched against the relative path, see pack.MatchGlob.
	// An empty list matches every file.
	Patterns []string
}

// NewSource creates a Source over root.
func NewSource(root string, patterns ...string) *Source {
	return &Source{Root: root, Patterns: patterns}
}

// Iter walks Root on a background goroutine.
func (s *Source) Iter(ctx context.Context) pipeline.Iterator[*pack.Package] {
	walkCtx, cancel := context.WithCancel(ctx)
	prod := pipeline.NewProducer[*pack.Package](walkBuffer)

	go func() {
		defer prod.Close()
		err := fs.WalkDir(os.DirFS(s.Root), ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if p == "." {
					return err
				}
				if sendErr := prod.SendErr(walkCtx, errors.IO("walk", p, err)); sendErr != nil {
					return sendErr
				}
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !s.matches(p) {
				return nil
			}
			pkg, err := s.open(p)
			if err != nil {
				return prod.SendErr(walkCtx, err)
			}
			return prod.Send(walkCtx, pkg)
		})
		if err != nil && walkCtx.Err() == nil && !errors.IsCode(err, errors.CodeClosed) {
			_ = prod.SendErr(walkCtx, errors.Wrapf(err, errors.CodeSource, "walk %s", s.Root))
		}
	}()

	return &walkIter{Iterator: prod.Source().Iter(ctx), cancel: cancel}
}

func (s *Source) matches(p string) bool {
	if len(s.Patterns) == 0 {
		return true
	}
	for _, pattern := range s.Patterns {
		if pack.GlobMatch(pattern, p) {
			return true
		}
	}
	return false
}

func (s *Source) open(rel string) (*pack.Package, error) {
	return pack.New(rel, pack.MimeFromPath(rel), pack.FileBody(filepath.Join(s.Root, filepath.FromSlash(rel))))
}

type walkIter struct {
	pipeline.Iterator[*pack.Package]
	cancel context.CancelFunc
}

func (it *walkIter) Close() error {
	it.cancel()
	return it.Iterator.Close()
}

// Open returns a Work that maps a path relative to root to a package backed
// by that file. The file must exist.
func Open(root string) pipeline.WorkFunc[string, *pack.Package] {
	return func(_ context.Context, rel string) (*pack.Package, error) {
		full, err := pack.Resolve(root, rel)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(full)
		if err != nil {
			return nil, errors.IO("stat", rel, err)
		}
		if info.IsDir() {
			return nil, errors.Newf(errors.CodeInvalidInput, "%s is a directory", rel)
		}
		return pack.New(rel, "", pack.FileBody(full))
	}
}

// compile-time check
var _ pipeline.Source[*pack.Package] = (*Source)(nil)
