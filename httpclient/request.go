package httpclient

import (
	"io"
	"net/http"
)

// Request describes an outbound HTTP request.
type Request struct {
	// Method defaults to GET.
	Method string
	// URL is resolved against the client's BaseURL when relative.
	URL string
	// Headers are request-specific headers (merged with client defaults).
	Headers map[string]string
	// Query are URL query parameters.
	Query map[string]string
	// Body is the request body, if any.
	Body io.Reader
}

// Response is a successful HTTP response with its body still unread.
// The caller must close Body.
type Response struct {
	// URL is the final URL after redirects.
	URL        string
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
	// ContentLength is -1 when unknown.
	ContentLength int64
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string { return r.Header.Get("Content-Type") }
