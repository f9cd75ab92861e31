package httpclient

import (
	"net/http"

	"github.com/kbukum/kravl/errors"
)

const detailStatus = "status"

// statusError classifies a non-2xx response.
func statusError(method, url string, status int) *errors.Error {
	return errors.Newf(errors.CodeExternal, "%s %s: HTTP %d", method, url, status).
		WithDetail(detailStatus, status).
		WithDetail("url", url)
}

// StatusOf returns the HTTP status carried by err, or 0 when err did not
// come from a response.
func StatusOf(err error) int {
	var e *errors.Error
	if !errors.As(err, &e) {
		return 0
	}
	status, _ := e.Details[detailStatus].(int)
	return status
}

// IsNotFound reports whether err is a 404 or 410 response.
func IsNotFound(err error) bool {
	s := StatusOf(err)
	return s == http.StatusNotFound || s == http.StatusGone
}
