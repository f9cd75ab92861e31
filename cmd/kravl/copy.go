package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/kravl/observability"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
	"github.com/kbukum/kravl/serialize"
	"github.com/kbukum/kravl/storage/local"
)

func newCopyCmd(a *app) *cobra.Command {
	var (
		globs []string
		to    string
	)
	cmd := &cobra.Command{
		Use:   "copy <dir>",
		Short: "Copy a directory tree into the sink",
		Long: `Copy every file under <dir> into the sink, keeping relative paths.

With --to, json, yaml and toml files are decoded and re-encoded in the
given format and renamed to its extension. Other files are copied as is.`,
		Example: `  kravl copy ./data --glob '**/*.yml' --to json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			work := pipeline.Work[*pack.Package, *pack.Package](pipeline.Noop[*pack.Package]())
			if to != "" {
				conv, err := convertTo(to)
				if err != nil {
					return err
				}
				work = observability.Instrument(a.inst, "transcode", conv)
			}
			src := local.NewSource(args[0], globs...)
			return a.drive(cmd.Context(), "copy", pipeline.Concurrent(src, work, a.concurrency()))
		},
	}
	cmd.Flags().StringArrayVarP(&globs, "glob", "g", nil, "only copy paths matching the pattern (repeatable, ** allowed)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "convert structured files to json, yaml or toml")
	return cmd
}

// convertTo transcodes packages with a known codec and passes every other
// package through unchanged.
func convertTo(name string) (pipeline.WorkFunc[*pack.Package, *pack.Package], error) {
	codec, err := serialize.ByName(name)
	if err != nil {
		return nil, err
	}
	structured := func(p *pack.Package) bool {
		_, err := serialize.ForPath(p.Path)
		return err == nil
	}
	keep := pipeline.Noop[*pack.Package]()
	return pipeline.Split(pipeline.Cond(structured, serialize.Transcode(codec)), keep, keep), nil
}
