package main

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/observability"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
	"github.com/kbukum/kravl/serialize"
)

func newFetchCmd(a *app) *cobra.Command {
	var (
		from     string
		cacheDir string
		sel      string
	)
	cmd := &cobra.Command{
		Use:   "fetch [url]...",
		Short: "Download URLs into the sink",
		Long: `Download each URL once and store the response under the last path
segment of the URL (index.html when empty). Requests honor http.rate_limit.
Failed downloads are reported according to the error policy and never
retried.

With --cache, responses are kept on disk and later runs read them from
there. With --select, each response is parsed as JSON and replaced by the
JSONPath matches as a JSON array.`,
		Example: `  kravl fetch https://example.com/a.json https://example.com/b.json
  kravl fetch --from urls.txt --cache .cache
  kravl fetch https://example.com/api --select '$.items[*].name'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if from != "" {
				more, err := readURLs(from, cmd.InOrStdin())
				if err != nil {
					return err
				}
				urls = append(urls, more...)
			}
			if len(urls) == 0 {
				return errors.New(errors.CodeInvalidInput, "no urls given")
			}

			client, err := a.httpClient()
			if err != nil {
				return err
			}
			get := client.Fetch()
			if cacheDir != "" {
				get = client.Download(cacheDir)
			}
			work := pipeline.Work[string, *pack.Package](observability.Instrument(a.inst, "fetch", get))
			if sel != "" {
				selectWork, err := serialize.Select(sel)
				if err != nil {
					return err
				}
				work = pipeline.And(work, observability.Instrument(a.inst, "select", selectWork))
			}
			return a.drive(cmd.Context(), "fetch", pipeline.Concurrent(pipeline.FromSlice(urls), work, a.concurrency()))
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "read more urls from a file, one per line (- for stdin)")
	cmd.Flags().StringVar(&cacheDir, "cache", "", "response cache directory")
	cmd.Flags().StringVarP(&sel, "select", "s", "", "JSONPath applied to each response")
	return cmd
}

// readURLs reads one url per line, skipping blanks and # comments.
func readURLs(name string, stdin io.Reader) ([]string, error) {
	r := stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, errors.IO("open", name, err)
		}
		defer f.Close()
		r = f
	}
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.IO("read", name, err)
	}
	return urls, nil
}
