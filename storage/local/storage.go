package local

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/logger"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		return NewStorage(FromStorage(cfg), log)
	})
}

// Storage implements storage.Storage on top of a Writer, so object writes
// share the exclusive-per-path discipline of the package sink.
type Storage struct {
	w *Writer
}

// NewStorage creates a new local filesystem storage.
func NewStorage(cfg *Config, log *logger.Logger) (*Storage, error) {
	w, err := NewWriter(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Storage{w: w}, nil
}

// Writer returns the underlying package writer.
func (s *Storage) Writer() *Writer { return s.w }

// Put writes an object, appending when its content type matches an append filter.
func (s *Storage) Put(ctx context.Context, obj storage.Object) error {
	appendMode := s.w.appendIf.Match(&pack.Package{Path: obj.Path, Mime: obj.ContentType})
	return s.w.write(ctx, obj.Path, appendMode, nil, func(f io.Writer) error {
		_, err := io.Copy(f, obj.Body)
		return err
	})
}

// Get returns a reader for the local file at the given path.
func (s *Storage) Get(_ context.Context, p string) (io.ReadCloser, error) {
	full, err := pack.Resolve(s.w.root, p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, errors.IO("open", p, err)
	}
	return f, nil
}

// Delete removes a local file. Returns nil if the file does not exist.
func (s *Storage) Delete(_ context.Context, p string) error {
	full, err := pack.Resolve(s.w.root, p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.IO("delete", p, err)
	}
	return nil
}

// Exists checks whether a local file exists.
func (s *Storage) Exists(_ context.Context, p string) (bool, error) {
	full, err := pack.Resolve(s.w.root, p)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.IO("stat", p, err)
	}
	return true, nil
}

// List returns metadata for all files whose relative path starts with prefix.
func (s *Storage) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	var files []storage.FileInfo
	err := fs.WalkDir(os.DirFS(s.w.root), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasPrefix(p, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, storage.FileInfo{
			Path:         p,
			Size:         info.Size(),
			LastModified: info.ModTime(),
			ContentType:  pack.MimeFromPath(path.Base(p)),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return []storage.FileInfo{}, nil
		}
		return nil, errors.IO("list", filepath.Join(s.w.root, prefix), err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// compile-time check
var _ storage.Storage = (*Storage)(nil)
