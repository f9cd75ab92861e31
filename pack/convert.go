package pack

import (
	"context"

	"github.com/kbukum/kravl/pipeline"
)

// IntoPackage is implemented by stage outputs that can be written by a sink,
// such as decoded images or serialized values.
type IntoPackage interface {
	IntoPackage(ctx context.Context) (*Package, error)
}

// Convert returns a Work turning any IntoPackage value into a Package.
func Convert[T IntoPackage]() pipeline.WorkFunc[T, *Package] {
	return func(ctx context.Context, v T) (*Package, error) {
		return v.IntoPackage(ctx)
	}
}

// Load returns a Work that loads each package body into memory.
func Load() pipeline.WorkFunc[*Package, *Package] {
	return func(ctx context.Context, p *Package) (*Package, error) {
		if err := p.Load(ctx); err != nil {
			return nil, err
		}
		return p, nil
	}
}

// Rename returns a Work that rewrites each package path with fn.
func Rename(fn func(string) string) pipeline.WorkFunc[*Package, *Package] {
	return func(_ context.Context, p *Package) (*Package, error) {
		if err := p.SetPath(fn(p.Path)); err != nil {
			return nil, err
		}
		return p, nil
	}
}

// Matching keeps packages selected by m.
func Matching(m Matcher) func(*Package) bool {
	return m.Match
}
