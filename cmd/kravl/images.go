package main

import (
	"path"

	"github.com/spf13/cobra"

	"github.com/kbukum/kravl/imaging"
	"github.com/kbukum/kravl/observability"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
	"github.com/kbukum/kravl/storage/local"
)

type imageFlags struct {
	globs    []string
	width    int
	height   int
	blur     float64
	format   string
	quality  int
	thumbDir string
}

func newImagesCmd(a *app) *cobra.Command {
	f := &imageFlags{}
	cmd := &cobra.Command{
		Use:   "images <dir>",
		Short: "Write resized copies of images next to re-encoded originals",
		Long: `Decode every image under <dir> and write two packages per image: a copy
fitted within --width x --height (optionally blurred) under --thumb-dir, and
the original re-encoded in --format. Aspect ratio is kept and images are
never upscaled.`,
		Example: `  kravl images ./photos --width 320 --height 320 --format jpeg --quality 80`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := imaging.ParseFormat(f.format, f.quality)
			if err != nil {
				return err
			}
			n := a.concurrency()

			files := pipeline.FilterFunc(local.NewSource(args[0], f.globs...), pack.Matching(imaging.IsImage))
			decoded := pipeline.Concurrent(files, observability.Instrument(a.inst, "decode", imaging.Decode()), n)
			both := pipeline.Cloned(decoded, thumbnail(f), pipeline.Noop[imaging.Image]())
			encoded := pipeline.Concurrent(both, observability.Instrument(a.inst, "encode", imaging.Save(format)), n)
			return a.drive(cmd.Context(), "images", encoded)
		},
	}
	fl := cmd.Flags()
	fl.StringArrayVarP(&f.globs, "glob", "g", nil, "only read paths matching the pattern (repeatable)")
	fl.IntVar(&f.width, "width", 256, "thumbnail bounding box width, 0 for unbounded")
	fl.IntVar(&f.height, "height", 256, "thumbnail bounding box height, 0 for unbounded")
	fl.Float64Var(&f.blur, "blur", 0, "gaussian blur sigma applied to thumbnails")
	fl.StringVarP(&f.format, "format", "f", "jpeg", "output format: jpeg or png")
	fl.IntVarP(&f.quality, "quality", "q", 85, "jpeg quality 1-100")
	fl.StringVar(&f.thumbDir, "thumb-dir", "thumbs", "directory for resized copies")
	return cmd
}

// thumbnail resizes, blurs and moves an image under the thumbnail dir.
func thumbnail(f *imageFlags) pipeline.WorkFunc[imaging.Image, imaging.Image] {
	ops := []imaging.Op{imaging.Resize{Width: f.width, Height: f.height}}
	if f.blur > 0 {
		ops = append(ops, imaging.Blur{Sigma: f.blur})
	}
	move := pipeline.Lift(func(img imaging.Image) imaging.Image {
		img.Path = path.Join(f.thumbDir, img.Path)
		return img
	})
	return pipeline.And(imaging.Apply(ops...), move)
}
