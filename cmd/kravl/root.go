package main

import (
	"github.com/spf13/cobra"
)

// globalFlags are shared by every pipeline command.
type globalFlags struct {
	configFile  string
	envFile     string
	out         string
	concurrency int
	policy      string
	verbose     int
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	a := &app{flags: flags}

	root := &cobra.Command{
		Use:   "kravl",
		Short: "kravl - typed crawl and transform pipelines",
		Long: `kravl moves packages (named blobs with a MIME type) from a source through
transform stages into a sink.

Commands:
  run     - run Lua crawl tasks and store what they emit
  copy    - copy a directory tree, optionally converting json/yaml/toml
  images  - decode images, write resized copies next to re-encoded originals
  fetch   - download URLs, optionally selecting JSON with a JSONPath
  watch   - copy files into the sink as they appear
  version - print build information

Packages are written under sink.root (or --out). MIME types listed in
sink.append_mimes are appended to their target instead of replacing it.

Examples:
  kravl run tasks/*.lua --out ./crawl
  kravl copy ./data --to json
  kravl images ./photos --width 320 --format jpeg --quality 80
  kravl fetch https://example.com/api/items --select '$.items[*].id'`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "config file (default: search ./kravl.yml, ./config/)")
	pf.StringVar(&flags.envFile, "env-file", "", ".env file (default: search ./.env.kravl, ./.env)")
	pf.StringVarP(&flags.out, "out", "o", "", "sink root directory, overrides sink.root")
	pf.IntVarP(&flags.concurrency, "concurrency", "j", 0, "items processed at once, overrides pipeline.concurrency")
	pf.StringVar(&flags.policy, "on-error", "", "log, abort or collect; overrides pipeline.error_policy")
	pf.CountVarP(&flags.verbose, "verbose", "v", "increase log verbosity (-v debug, -vv trace)")

	root.AddCommand(
		newRunCmd(a),
		newCopyCmd(a),
		newImagesCmd(a),
		newFetchCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)
	return root
}
