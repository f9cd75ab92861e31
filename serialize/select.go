package serialize

import (
	"context"

	"github.com/ohler55/ojg/jp"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
)

// Select returns a Work that evaluates a JSONPath expression against the
// decoded package content and yields a JSON package holding the array of
// matches. The path keeps its name with a .json extension.
func Select(expr string) (pipeline.WorkFunc[*pack.Package, *pack.Package], error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidInput, "invalid JSONPath expression %q", expr)
	}
	decode := Decode[any]()
	return func(ctx context.Context, p *pack.Package) (*pack.Package, error) {
		doc, err := decode.Call(ctx, p)
		if err != nil {
			return nil, err
		}
		matches := x.Get(normalize(doc.Value))
		if matches == nil {
			matches = []any{}
		}
		out, err := encode(JSON, doc.Path, matches)
		if err != nil {
			return nil, err
		}
		out.SetExt(JSON.Ext())
		return out, nil
	}, nil
}

// normalize converts decoder specific containers into the plain maps and
// slices JSONPath evaluation walks.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if s, ok := k.(string); ok {
				out[s] = normalize(item)
			}
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	}
	return v
}
