package serialize

import (
	"context"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
)

// Value is a decoded package: the typed content and the path it belongs to.
type Value[T any] struct {
	Path  string
	Value T
}

// IntoPackage encodes the value with the codec matching its path.
func (v *Value[T]) IntoPackage(_ context.Context) (*pack.Package, error) {
	c, err := ForPath(v.Path)
	if err != nil {
		return nil, err
	}
	return encode(c, v.Path, v.Value)
}

func encode(c Codec, p string, v any) (*pack.Package, error) {
	data, err := c.Marshal(v)
	if err != nil {
		return nil, errors.Encode(c.Name()+" "+p, err)
	}
	return pack.FromBytes(p, c.Mime(), data)
}

// Decode returns a Work decoding package content into a T. The package
// body is consumed.
func Decode[T any]() pipeline.WorkFunc[*pack.Package, *Value[T]] {
	return func(ctx context.Context, p *pack.Package) (*Value[T], error) {
		c, err := forPackage(p)
		if err != nil {
			return nil, err
		}
		body := p.TakeBody()
		data, err := body.Bytes(ctx)
		if err != nil {
			return nil, err
		}
		out := &Value[T]{Path: p.Path}
		if err := c.Unmarshal(data, &out.Value); err != nil {
			return nil, errors.Decode(c.Name()+" "+p.Path, err)
		}
		return out, nil
	}
}

// Encode returns a Work encoding values with the codec matching their path.
func Encode[T any]() pipeline.WorkFunc[*Value[T], *pack.Package] {
	return func(ctx context.Context, v *Value[T]) (*pack.Package, error) {
		return v.IntoPackage(ctx)
	}
}

// EncodeAs returns a Work encoding values with c. The extension of each
// path is replaced by the codec's.
func EncodeAs[T any](c Codec) pipeline.WorkFunc[*Value[T], *pack.Package] {
	return func(_ context.Context, v *Value[T]) (*pack.Package, error) {
		p, err := encode(c, v.Path, v.Value)
		if err != nil {
			return nil, err
		}
		p.SetExt(c.Ext())
		return p, nil
	}
}

// Transcode returns a Work that re-encodes a package into the format of c,
// e.g. YAML to JSON.
func Transcode(c Codec) pipeline.WorkFunc[*pack.Package, *pack.Package] {
	return pipeline.And[*pack.Package, *Value[any], *pack.Package](Decode[any](), EncodeAs[any](c))
}
