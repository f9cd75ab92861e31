package imaging

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
)

// Format is an output encoding.
type Format struct {
	name    string
	ext     string
	mime    string
	quality int
}

// JPEG encodes with the given quality (1-100).
func JPEG(quality int) Format {
	return Format{name: "jpeg", ext: ".jpeg", mime: "image/jpeg", quality: min(max(quality, 1), 100)}
}

// PNG encodes losslessly.
func PNG() Format {
	return Format{name: "png", ext: ".png", mime: "image/png"}
}

// ParseFormat parses "png", "jpeg" or "jpg". JPEG uses quality q.
func ParseFormat(name string, q int) (Format, error) {
	switch name {
	case "png":
		return PNG(), nil
	case "jpeg", "jpg":
		return JPEG(q), nil
	}
	return Format{}, errors.Unsupported("image format", name)
}

// String returns the format name.
func (f Format) String() string { return f.name }

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return f.ext }

// Mime returns the MIME type.
func (f Format) Mime() string { return f.mime }

// Encode writes img in this format.
func (f Format) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f.name {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: f.quality})
	case "png":
		err = png.Encode(&buf, img)
	default:
		return nil, errors.Unsupported("image format", f.name)
	}
	if err != nil {
		return nil, errors.Encode(f.name, err)
	}
	return buf.Bytes(), nil
}

func (f Format) encodePackage(img Image) (*pack.Package, error) {
	data, err := f.Encode(img.Image)
	if err != nil {
		return nil, err
	}
	p, err := pack.FromBytes(img.Path, f.mime, data)
	if err != nil {
		return nil, err
	}
	p.SetExt(f.ext)
	return p, nil
}

// Save returns a Work encoding images into packages in format f. The
// package path is the image path with the format's extension.
func Save(f Format) pipeline.WorkFunc[Image, *pack.Package] {
	return func(ctx context.Context, img Image) (*pack.Package, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return f.encodePackage(img)
	}
}
