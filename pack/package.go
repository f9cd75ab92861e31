package pack

import (
	"context"
	"path"
	"strings"
)

// Package is a logical file on its way to a sink.
type Package struct {
	// Path is slash separated and relative to the sink root.
	Path string
	// Mime is the content type without parameters.
	Mime string
	Body Body
	Meta Meta
}

// New creates a package after cleaning p. An empty mimeType is guessed from
// the path extension.
func New(p, mimeType string, body Body) (*Package, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	if mimeType == "" {
		mimeType = MimeFromPath(cleaned)
	}
	return &Package{Path: cleaned, Mime: BaseMime(mimeType), Body: body}, nil
}

// FromBytes creates an in-memory package.
func FromBytes(p, mimeType string, data []byte) (*Package, error) {
	return New(p, mimeType, BytesBody(data))
}

// SetPath replaces the path after cleaning it.
func (p *Package) SetPath(newPath string) error {
	cleaned, err := CleanPath(newPath)
	if err != nil {
		return err
	}
	p.Path = cleaned
	return nil
}

// Name returns the last path element.
func (p *Package) Name() string { return path.Base(p.Path) }

// Dir returns all but the last path element.
func (p *Package) Dir() string { return path.Dir(p.Path) }

// Ext returns the lowercased extension including the dot.
func (p *Package) Ext() string { return strings.ToLower(path.Ext(p.Path)) }

// SetExt replaces the extension of the path. ext includes the leading dot.
func (p *Package) SetExt(ext string) {
	p.Path = strings.TrimSuffix(p.Path, path.Ext(p.Path)) + ext
}

// Load promotes the body to bytes.
func (p *Package) Load(ctx context.Context) error {
	return p.Body.Load(ctx)
}

// Bytes loads the body and returns its content.
func (p *Package) Bytes(ctx context.Context) ([]byte, error) {
	return p.Body.Bytes(ctx)
}

// SetBytes replaces the body with in-memory content, closing an unread stream.
func (p *Package) SetBytes(data []byte) {
	_ = p.Body.Close()
	p.Body = BytesBody(data)
}

// TakeBody returns the body and leaves the package empty.
func (p *Package) TakeBody() Body {
	b := p.Body
	p.Body = Body{}
	return b
}

// AsyncClone loads the body and returns an independent copy of the package.
// Meta values are shared, not duplicated.
func (p *Package) AsyncClone(ctx context.Context) (*Package, error) {
	body, err := p.Body.Clone(ctx)
	if err != nil {
		return nil, err
	}
	return &Package{Path: p.Path, Mime: p.Mime, Body: body, Meta: p.Meta.Clone()}, nil
}

// Task returns the task name stored in Meta, if any.
func (p *Package) Task() string {
	name, _ := Get[TaskName](&p.Meta)
	return string(name)
}
