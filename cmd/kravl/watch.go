package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/kravl/logger"
	"github.com/kbukum/kravl/observability"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
	"github.com/kbukum/kravl/storage/local"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		globs []string
		to    string
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Copy files into the sink as they are written",
		Long: `Watch <dir> recursively and copy each file that is created or written,
until interrupted. --to converts structured files as in copy.`,
		Example: `  kravl watch ./inbox --glob '*.yaml' --to json`,
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
			a.log.Info("watching", logger.Fields(logger.FieldPath, args[0]))
			src := local.NewWatch(args[0], globs...)
			return a.drive(cmd.Context(), "watch", pipeline.Concurrent(src, work, a.concurrency()))
		},
	}
	cmd.Flags().StringArrayVarP(&globs, "glob", "g", nil, "only copy paths matching the pattern (repeatable)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "convert structured files to json, yaml or toml")
	return cmd
}
