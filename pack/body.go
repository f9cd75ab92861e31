package pack

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/kbukum/kravl/errors"
)

// BodyKind identifies which variant a Body currently holds.
type BodyKind int

const (
	// KindEmpty is a body with no content.
	KindEmpty BodyKind = iota
	// KindBytes is content held in memory.
	KindBytes
	// KindPath is an unread file on disk.
	KindPath
	// KindStream is a lazy byte stream that can be read once.
	KindStream
)

func (k BodyKind) String() string {
	switch k {
	case KindBytes:
		return "bytes"
	case KindPath:
		return "path"
	case KindStream:
		return "stream"
	default:
		return "empty"
	}
}

// Body is the content of a package. The zero value is an empty body.
type Body struct {
	kind   BodyKind
	data   []byte
	path   string
	stream io.ReadCloser
}

// BytesBody returns a body holding data in memory.
func BytesBody(data []byte) Body {
	return Body{kind: KindBytes, data: data}
}

// StringBody returns a body holding s in memory.
func StringBody(s string) Body {
	return BytesBody([]byte(s))
}

// FileBody returns a body referring to the file at path. The file is not
// opened until the body is loaded or read.
func FileBody(path string) Body {
	return Body{kind: KindPath, path: path}
}

// StreamBody returns a body backed by r. The stream is read at most once.
func StreamBody(r io.ReadCloser) Body {
	return Body{kind: KindStream, stream: r}
}

// Kind reports the current variant.
func (b *Body) Kind() BodyKind { return b.kind }

// IsLoaded reports whether the body is in memory or empty.
func (b *Body) IsLoaded() bool {
	return b.kind == KindBytes || b.kind == KindEmpty
}

// FilePath returns the on-disk path of an unread file body.
func (b *Body) FilePath() (string, bool) {
	return b.path, b.kind == KindPath
}

// Len returns the content length, or -1 when it is unknown without loading.
func (b *Body) Len() int {
	switch b.kind {
	case KindBytes:
		return len(b.data)
	case KindEmpty:
		return 0
	default:
		return -1
	}
}

// Load promotes a file or stream body to bytes. Loading a body that is
// already in memory or empty does nothing.
func (b *Body) Load(ctx context.Context) error {
	switch b.kind {
	case KindPath:
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(b.path)
		if err != nil {
			return errors.IO("read", b.path, err)
		}
		*b = Body{kind: KindBytes, data: data}
	case KindStream:
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := io.ReadAll(b.stream)
		closeErr := b.stream.Close()
		if err != nil {
			*b = Body{}
			return errors.Wrap(err, errors.CodeIO, "read stream")
		}
		if closeErr != nil {
			*b = Body{}
			return errors.Wrap(closeErr, errors.CodeIO, "close stream")
		}
		*b = Body{kind: KindBytes, data: data}
	}
	return nil
}

// Bytes loads the body and returns its content.
func (b *Body) Bytes(ctx context.Context) ([]byte, error) {
	if err := b.Load(ctx); err != nil {
		return nil, err
	}
	return b.data, nil
}

// Clone loads the body and returns an independent copy of it.
func (b *Body) Clone(ctx context.Context) (Body, error) {
	if err := b.Load(ctx); err != nil {
		return Body{}, err
	}
	if b.kind == KindEmpty {
		return Body{}, nil
	}
	return BytesBody(bytes.Clone(b.data)), nil
}

// Reader returns a reader over the content without loading a lazy body into
// memory. A stream body is handed over to the caller and the body becomes
// empty.
func (b *Body) Reader(ctx context.Context) (io.ReadCloser, error) {
	switch b.kind {
	case KindBytes:
		return io.NopCloser(bytes.NewReader(b.data)), nil
	case KindPath:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(b.path)
		if err != nil {
			return nil, errors.IO("open", b.path, err)
		}
		return f, nil
	case KindStream:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := b.stream
		*b = Body{}
		return r, nil
	default:
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
}

// CopyTo copies the content to w. See Reader for how stream bodies behave.
func (b *Body) CopyTo(ctx context.Context, w io.Writer) (int64, error) {
	r, err := b.Reader(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	n, err := io.Copy(w, r)
	if err != nil {
		return n, errors.Wrap(err, errors.CodeIO, "copy body")
	}
	return n, nil
}

// Close releases an unread stream. It is safe to call on any body.
func (b *Body) Close() error {
	if b.kind != KindStream {
		return nil
	}
	err := b.stream.Close()
	*b = Body{}
	return err
}
