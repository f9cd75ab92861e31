package imaging

import (
	"bytes"
	"context"
	"image"
	_ "image/gif" // register decoder
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
)

// Image is a decoded image together with the path of the package it came
// from. Operations never modify Image in place, so copies may share it.
type Image struct {
	Path  string
	Image image.Image
}

// Bounds returns the image size.
func (img Image) Bounds() image.Rectangle { return img.Image.Bounds() }

// IntoPackage encodes the image as PNG.
func (img Image) IntoPackage(_ context.Context) (*pack.Package, error) {
	return PNG().encodePackage(img)
}

// IsImage selects packages with an image MIME type.
var IsImage = pack.MatchMimeType("image/*")

// Decode returns a Work that decodes a package body into an Image. The
// format is detected from the content. The package body is consumed.
func Decode() pipeline.WorkFunc[*pack.Package, Image] {
	return func(ctx context.Context, p *pack.Package) (Image, error) {
		body := p.TakeBody()
		data, err := body.Bytes(ctx)
		if err != nil {
			return Image{}, err
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return Image{}, errors.Decode("image "+p.Path, err)
		}
		return Image{Path: p.Path, Image: img}, nil
	}
}
