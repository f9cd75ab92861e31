package httpclient

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/logger"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
)

// Download returns a Work like Fetch that keeps each response in cacheDir
// under <host>/<path>. A cached URL is served from disk without a request.
// The package body refers to the cached file.
func (c *Client) Download(cacheDir string) pipeline.WorkFunc[string, *pack.Package] {
	return func(ctx context.Context, rawURL string) (*pack.Package, error) {
		key, err := cacheKey(rawURL)
		if err != nil {
			return nil, err
		}
		target, err := pack.Resolve(cacheDir, key)
		if err != nil {
			return nil, err
		}

		name := NameFor(rawURL)
		if info, err := os.Stat(target); err == nil && !info.IsDir() {
			c.log.Debug("cache hit", logger.Fields(logger.FieldURL, rawURL, logger.FieldPath, target))
			return cachedPackage(name, "", rawURL, target)
		}

		resp, err := c.Do(ctx, Request{URL: rawURL})
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		if err := writeAtomic(target, resp.Body); err != nil {
			return nil, err
		}
		return cachedPackage(name, pack.BaseMime(resp.ContentType()), rawURL, target)
	}
}

func cachedPackage(name, mimeType, rawURL, file string) (*pack.Package, error) {
	p, err := pack.New(name, mimeType, pack.FileBody(file))
	if err != nil {
		return nil, err
	}
	pack.Insert(&p.Meta, pack.SourceURL(rawURL))
	return p, nil
}

// cacheKey maps a URL to a relative cache path.
func cacheKey(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", errors.Newf(errors.CodeInvalidInput, "cannot cache url %q", rawURL)
	}
	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		p = path.Join(p, "index.html")
	}
	host := strings.ReplaceAll(u.Host, ":", "_")
	return pack.CleanPath(path.Join(host, strings.TrimPrefix(p, "/")))
}

// writeAtomic copies r into a temporary file next to target and renames it
// into place, so readers never see a partial download.
func writeAtomic(target string, r io.Reader) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.IO("create directory for", target, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return errors.IO("create", target, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return errors.External("http", err).WithDetail("path", target)
	}
	if err := tmp.Close(); err != nil {
		return errors.IO("close", target, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return errors.IO("rename", target, err)
	}
	return nil
}
