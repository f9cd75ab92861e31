package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/logger"
	"github.com/kbukum/kravl/pack"
	"github.com/kbukum/kravl/pipeline"
	"github.com/kbukum/kravl/resilience"
)

// Client is a configurable HTTP client with a shared rate limit.
// It is safe for concurrent use; the rate limit is shared by all callers.
type Client struct {
	httpClient *http.Client
	config     Config
	limiter    *resilience.RateLimiter
	log        *logger.Logger
}

// New creates a new HTTP client with the given configuration.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Client{
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		config:     cfg,
		limiter:    resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: cfg.RateLimit, Burst: cfg.Burst}),
		log:        log.WithComponent("httpclient"),
	}, nil
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Client) Unwrap() *http.Client {
	return c.httpClient
}

// Do sends req once and returns the response with an unread body.
// Responses outside 2xx are closed and returned as errors.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var uerr *url.Error
		if errors.As(err, &uerr) && uerr.Timeout() {
			return nil, errors.Wrapf(err, errors.CodeTimeout, "%s %s", httpReq.Method, httpReq.URL)
		}
		return nil, errors.External("http", err).WithDetail("url", httpReq.URL.String())
	}

	c.log.Debug("http response", logger.Fields(
		logger.FieldURL, httpReq.URL.String(),
		"status", resp.StatusCode,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, statusError(httpReq.Method, httpReq.URL.String(), resp.StatusCode)
	}

	return &Response{
		URL:           resp.Request.URL.String(),
		StatusCode:    resp.StatusCode,
		Header:        resp.Header,
		Body:          resp.Body,
		ContentLength: resp.ContentLength,
	}, nil
}

// Get fetches rawURL and reads the whole body.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.Do(ctx, Request{URL: rawURL})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.External("http", err).WithDetail("url", resp.URL)
	}
	return data, nil
}

// buildRequest constructs an *http.Request from the client config and request.
func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	target, err := c.resolve(req.URL)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, req.Body)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidInput, "create request for %s", target)
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

func (c *Client) resolve(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeInvalidInput, "parse url %q", raw)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if c.config.BaseURL == "" {
		return "", errors.Newf(errors.CodeInvalidInput, "relative url %q without base url", raw)
	}
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeInvalidInput, "parse base url %q", c.config.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base.ResolveReference(&url.URL{Path: strings.TrimLeft(u.Path, "/"), RawQuery: u.RawQuery}).String(), nil
}

// Fetch returns a Work that requests a URL and yields its response as a
// package with a streamed body. The package is named after the last path
// segment of the final URL and remembers the URL as pack.SourceURL meta.
func (c *Client) Fetch() pipeline.WorkFunc[string, *pack.Package] {
	return func(ctx context.Context, rawURL string) (*pack.Package, error) {
		resp, err := c.Do(ctx, Request{URL: rawURL})
		if err != nil {
			return nil, err
		}
		p, err := responsePackage(resp)
		if err != nil {
			_ = resp.Body.Close()
			return nil, err
		}
		return p, nil
	}
}

func responsePackage(resp *Response) (*pack.Package, error) {
	name := NameFor(resp.URL)
	mimeType := pack.BaseMime(resp.ContentType())
	if mimeType == "" {
		mimeType = pack.MimeFromPath(name)
	}
	p, err := pack.New(name, mimeType, pack.StreamBody(resp.Body))
	if err != nil {
		return nil, err
	}
	pack.Insert(&p.Meta, pack.SourceURL(resp.URL))
	return p, nil
}

// NameFor returns the package name for a URL: its last path segment, or
// index.html when the path is empty or ends with a slash.
func NameFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return "index.html"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == ".." {
		return "index.html"
	}
	return name
}
