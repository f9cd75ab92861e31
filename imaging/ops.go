package imaging

import (
	"context"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/pipeline"
)

// Op transforms an image into a new one.
type Op interface {
	Apply(img image.Image) (image.Image, error)
}

// Resize scales an image to fit within Width x Height while keeping its
// aspect ratio. A zero side is unconstrained. Images already inside the
// bounds are returned unchanged.
type Resize struct {
	Width  int
	Height int
	// Scaler defaults to CatmullRom.
	Scaler xdraw.Scaler
}

// Apply implements Op.
func (r Resize) Apply(img image.Image) (image.Image, error) {
	if r.Width < 0 || r.Height < 0 || (r.Width == 0 && r.Height == 0) {
		return nil, errors.Newf(errors.CodeInvalidInput, "resize: invalid bounds %dx%d", r.Width, r.Height)
	}
	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), r.Width, r.Height)
	if w == b.Dx() && h == b.Dy() {
		return img, nil
	}

	scaler := r.Scaler
	if scaler == nil {
		scaler = xdraw.CatmullRom
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	scaler.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst, nil
}

// fit returns the largest size with the aspect ratio of w x h that fits
// in maxW x maxH, never scaling up.
func fit(w, h, maxW, maxH int) (int, int) {
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && h > maxH {
		scale = math.Min(scale, float64(maxH)/float64(h))
	}
	if scale >= 1 {
		return w, h
	}
	return max(1, int(math.Round(float64(w)*scale))), max(1, int(math.Round(float64(h)*scale)))
}

// Blur approximates a gaussian blur of the given standard deviation with
// three box blur passes.
type Blur struct {
	Sigma float64
}

// Apply implements Op.
func (bl Blur) Apply(img image.Image) (image.Image, error) {
	if bl.Sigma < 0 {
		return nil, errors.Newf(errors.CodeInvalidInput, "blur: negative sigma %v", bl.Sigma)
	}
	src := toNRGBA(img)
	if bl.Sigma == 0 {
		return src, nil
	}
	radius := boxRadius(bl.Sigma)
	tmp := image.NewNRGBA(src.Rect)
	out := image.NewNRGBA(src.Rect)
	for range 3 {
		boxPass(tmp, src, radius, true)
		boxPass(out, tmp, radius, false)
		src, out = out, src
	}
	return src, nil
}

// boxRadius picks a box radius whose three passes match sigma.
func boxRadius(sigma float64) int {
	// variance of a box of width 2r+1 is ((2r+1)^2-1)/12, three passes add up
	w := math.Sqrt(12*sigma*sigma/3 + 1)
	return max(1, int(math.Round((w-1)/2)))
}

// boxPass blurs src into dst along one axis, clamping at the edges.
func boxPass(dst, src *image.NRGBA, r int, horizontal bool) {
	b := src.Rect
	outer, inner := b.Dy(), b.Dx()
	if !horizontal {
		outer, inner = inner, outer
	}
	n := 2*r + 1
	at := func(o, i int) int {
		i = min(max(i, 0), inner-1)
		if horizontal {
			return o*src.Stride + i*4
		}
		return i*src.Stride + o*4
	}

	for o := range outer {
		var sum [4]int
		for i := -r; i <= r; i++ {
			off := at(o, i)
			for c := range 4 {
				sum[c] += int(src.Pix[off+c])
			}
		}
		for i := range inner {
			off := at(o, i)
			for c := range 4 {
				dst.Pix[off+c] = uint8((sum[c] + n/2) / n)
			}
			in, out := at(o, i+r+1), at(o, i-r)
			for c := range 4 {
				sum[c] += int(src.Pix[in+c]) - int(src.Pix[out+c])
			}
		}
	}
}

// toNRGBA returns a copy of img as NRGBA with its origin at 0,0.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}

// Apply returns a Work running ops in order.
func Apply(ops ...Op) pipeline.WorkFunc[Image, Image] {
	return func(ctx context.Context, img Image) (Image, error) {
		cur := img.Image
		for _, op := range ops {
			if err := ctx.Err(); err != nil {
				return Image{}, err
			}
			next, err := op.Apply(cur)
			if err != nil {
				return Image{}, errors.Wrapf(err, errors.CodeWork, "transform %s", img.Path)
			}
			cur = next
		}
		return Image{Path: img.Path, Image: cur}, nil
	}
}
