package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/logger"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
)

func newClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := New(cfg, logger.Nop())
	require.NoError(t, err)
	return c
}

func TestClient_DoAppliesHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/items", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "kravl-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "default", r.Header.Get("X-Default"))
		assert.Equal(t, "override", r.Header.Get("X-Req"))
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := newClient(t, Config{
		BaseURL:   srv.URL + "/api",
		UserAgent: "kravl-test",
		Headers:   map[string]string{"X-Default": "default", "X-Req": "default"},
	})
	resp, err := c.Do(context.Background(), Request{
		URL:     "items",
		Query:   map[string]string{"page": "2"},
		Headers: map[string]string{"X-Req": "override"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient_RelativeWithoutBase(t *testing.T) {
	c := newClient(t, Config{})
	_, err := c.Do(context.Background(), Request{URL: "/x"})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))
}

func TestClient_StatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()
	c := newClient(t, Config{BaseURL: srv.URL})

	_, err := c.Get(context.Background(), "/missing")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeExternal))
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.True(t, IsNotFound(err))

	_, err = c.Get(context.Background(), "/broken")
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
}

func TestClient_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()
	c := newClient(t, Config{BaseURL: srv.URL, RateLimit: 40, Burst: 1})

	start := time.Now()
	for range 3 {
		_, err := c.Get(context.Background(), "/")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/items.json":
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = io.WriteString(w, `[1,2]`)
		case "/":
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, "<html></html>")
		case "/raw/blob.png":
			w.Header()["Content-Type"] = nil
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := newClient(t, Config{})
	ctx := context.Background()
	fetch := c.Fetch()

	p, err := fetch.Call(ctx, srv.URL+"/data/items.json")
	require.NoError(t, err)
	assert.Equal(t, "items.json", p.Path)
	assert.Equal(t, "application/json", p.Mime)
	assert.Equal(t, pack.KindStream, p.Body.Kind())
	data, err := p.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(data))
	src, ok := pack.Get[pack.SourceURL](&p.Meta)
	require.True(t, ok)
	assert.Equal(t, pack.SourceURL(srv.URL+"/data/items.json"), src)

	p, err = fetch.Call(ctx, srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, "index.html", p.Path)
	assert.Equal(t, "text/html", p.Mime)
	require.NoError(t, p.Body.Close())

	p, err = fetch.Call(ctx, srv.URL+"/raw/blob.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", p.Mime)
	require.NoError(t, p.Body.Close())

	_, err = fetch.Call(ctx, srv.URL+"/nope")
	assert.True(t, IsNotFound(err))
}

func TestFetch_ConcurrentCrawlKeepsFailuresInStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad.txt" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, r.URL.Path)
	}))
	defer srv.Close()
	c := newClient(t, Config{BaseURL: srv.URL})

	urls := []string{"/a.txt", "/bad.txt", "/b.txt", "/c.txt"}
	results, err := pipeline.CollectResults[*pack.Package](context.Background(), pipeline.Concurrent[string, *pack.Package](pipeline.FromSlice(urls), c.Fetch(), 2))
	require.NoError(t, err)
	require.Len(t, results, 4)

	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
			continue
		}
		require.NoError(t, r.Value.Body.Close())
	}
	assert.Equal(t, 1, failures)
}

func TestDownload_UsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "cached body")
	}))
	defer srv.Close()

	cache := t.TempDir()
	c := newClient(t, Config{})
	download := c.Download(cache)
	ctx := context.Background()

	for range 2 {
		p, err := download.Call(ctx, srv.URL+"/docs/readme.txt")
		require.NoError(t, err)
		assert.Equal(t, "readme.txt", p.Path)
		assert.Equal(t, "text/plain", p.Mime)
		assert.Equal(t, pack.KindPath, p.Body.Kind())
		data, err := p.Bytes(ctx)
		require.NoError(t, err)
		assert.Equal(t, "cached body", string(data))
	}
	assert.Equal(t, int32(1), calls.Load())

	key, err := cacheKey(srv.URL + "/docs/readme.txt")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(cache, filepath.FromSlash(key)))
	assert.NoError(t, err)
}

func TestCacheKey(t *testing.T) {
	key, err := cacheKey("https://example.com:8080/a/b/")
	require.NoError(t, err)
	assert.Equal(t, "example.com_8080/a/b/index.html", key)

	key, err = cacheKey("https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com/index.html", key)

	_, err = cacheKey("no-host")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))
}

func TestNameFor(t *testing.T) {
	assert.Equal(t, "index.html", NameFor("https://example.com"))
	assert.Equal(t, "index.html", NameFor("https://example.com/dir/"))
	assert.Equal(t, "page.html", NameFor("https://example.com/dir/page.html?x=1"))
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{RateLimit: -1}
	cfg.ApplyDefaults()
	assert.Error(t, cfg.Validate())

	cfg = Config{}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Equal(t, defaultUserAgent, cfg.UserAgent)
}
