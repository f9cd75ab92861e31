package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/script"
	"github.com/kbukum/kravl/serialize"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		args    []string
		noFetch bool
	)
	cmd := &cobra.Command{
		Use:   "run <task.lua>...",
		Short: "Run Lua crawl tasks and store what they emit",
		Long: `Run one or more Lua task files. Each task defines run(task) and calls
emit(name, content [, mime]) for every package it produces; tables are
stored as JSON. fetch(url) performs an HTTP GET with the configured client.

Arguments given with --arg are visible to every task as task.args. Numbers
and true/false keep their type.`,
		Example: `  kravl run tasks/news.lua --arg pages=3 --out ./news`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, paths []string) error {
			taskArgs, err := parseTaskArgs(args)
			if err != nil {
				return err
			}
			tasks := make([]script.Task, 0, len(paths))
			for _, p := range paths {
				t, err := script.LoadTask(p, taskArgs)
				if err != nil {
					return err
				}
				tasks = append(tasks, t)
			}

			runner := &script.Runner{
				Concurrency: a.concurrency(),
				Buffer:      a.cfg.Pipeline.Buffer,
				Log:         a.log,
			}
			if !noFetch {
				if runner.Client, err = a.httpClient(); err != nil {
					return err
				}
			}
			return a.drive(cmd.Context(), "run", runner.Source(tasks...))
		},
	}
	cmd.Flags().StringArrayVarP(&args, "arg", "a", nil, "task argument key=value (repeatable)")
	cmd.Flags().BoolVar(&noFetch, "no-fetch", false, "do not expose fetch() to tasks")
	return cmd
}

// parseTaskArgs turns key=value pairs into task arguments. Values that
// parse as int, float or bool keep that type.
func parseTaskArgs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, errors.Newf(errors.CodeInvalidInput, "task argument %q is not key=value", pair)
		}
		out[key] = scalar(value)
	}
	return out, nil
}

func scalar(s string) any {
	if n, err := serialize.Parse[int64](s); err == nil {
		return n
	}
	if f, err := serialize.Parse[float64](s); err == nil {
		return f
	}
	if s == "true" || s == "false" {
		return s == "true"
	}
	return s
}
