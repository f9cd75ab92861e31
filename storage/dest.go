package storage

import (
	"bytes"
	"context"
	"strings"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/logger"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
)

// Dest returns a pipeline Dest that writes each package to st under its
// path. The body is loaded before the write so backends receive a seekable
// reader with a known size.
func Dest(st Storage, log *logger.Logger) pipeline.DestFunc[*pack.Package] {
	log = log.WithComponent("storage-dest")
	return func(ctx context.Context, p *pack.Package) error {
		data, err := p.Bytes(ctx)
		if err != nil {
			return err
		}
		err = st.Put(ctx, Object{
			Path:        p.Path,
			ContentType: p.Mime,
			Size:        int64(len(data)),
			Body:        bytes.NewReader(data),
		})
		if err != nil {
			return errors.Wrapf(err, errors.CodeDest, "put %s", p.Path)
		}
		log.Debug("package stored", logger.Fields(logger.FieldPath, p.Path, logger.FieldMime, p.Mime, logger.FieldTask, p.Task()))
		return nil
	}
}

// Source lists the objects under prefix and yields one package per object.
// Each object is opened only when its package is pulled.
func Source(st Storage, prefix string) *pipeline.Pipeline[*pack.Package] {
	return pipeline.FromFunc(func(ctx context.Context) pipeline.Iterator[*pack.Package] {
		files, err := st.List(ctx, prefix)
		if err != nil {
			return pipeline.Once[*pack.Package](nil, errors.Wrapf(err, errors.CodeSource, "list %q", prefix)).Iter(ctx)
		}
		open := pipeline.WorkFunc[FileInfo, *pack.Package](func(ctx context.Context, fi FileInfo) (*pack.Package, error) {
			body, err := st.Get(ctx, fi.Path)
			if err != nil {
				return nil, errors.Wrapf(err, errors.CodeSource, "get %s", fi.Path)
			}
			p, err := pack.New(strings.TrimPrefix(fi.Path, "/"), fi.ContentType, pack.StreamBody(body))
			if err != nil {
				_ = body.Close()
				return nil, err
			}
			return p, nil
		})
		return pipeline.Pipe[FileInfo, *pack.Package](pipeline.FromSlice(files), open).Iter(ctx)
	})
}
