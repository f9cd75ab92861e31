package pack

import (
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// OctetStream is the MIME type used when nothing better is known.
const OctetStream = "application/octet-stream"

// Types the host mime database may not know, or knows with parameters.
var knownTypes = map[string]string{
	".json": "application/json",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".toml": "application/toml",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".html": "text/html",
	".htm":  "text/html",
	".xml":  "application/xml",
	".js":   "text/javascript",
	".lua":  "text/x-lua",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

var knownExts = map[string]string{
	"application/json": ".json",
	"application/yaml": ".yaml",
	"application/toml": ".toml",
	"text/plain":       ".txt",
	"text/html":        ".html",
	"image/jpeg":       ".jpg",
	"image/png":        ".png",
	"image/gif":        ".gif",
	"image/webp":       ".webp",
}

// MimeFromPath guesses a MIME type from the extension of p, without
// parameters. Unknown extensions yield OctetStream.
func MimeFromPath(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return OctetStream
	}
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return BaseMime(t)
	}
	return OctetStream
}

// Sniff detects a MIME type from content.
func Sniff(data []byte) string {
	return BaseMime(mimetype.Detect(data).String())
}

// Detect guesses from the extension first and falls back to sniffing data.
func Detect(p string, data []byte) string {
	if t := MimeFromPath(p); t != OctetStream {
		return t
	}
	if len(data) == 0 {
		return OctetStream
	}
	return Sniff(data)
}

// ExtFor returns the preferred file extension for a MIME type, including
// the leading dot, or "" when none is known.
func ExtFor(mimeType string) string {
	base := BaseMime(mimeType)
	if ext, ok := knownExts[base]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(base); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// BaseMime strips parameters and lowercases a MIME type.
func BaseMime(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.ToLower(strings.TrimSpace(t))
}

// MatchMime reports whether mimeType matches pattern. Patterns are exact
// types, "type/*" or "*/*". Parameters on either side are ignored.
func MatchMime(pattern, mimeType string) bool {
	pattern, mimeType = BaseMime(pattern), BaseMime(mimeType)
	if pattern == "*/*" || pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		major, _, _ := strings.Cut(mimeType, "/")
		return major == prefix
	}
	return pattern == mimeType
}
