package serialize

import (
	"path"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/kbukum/kravl/errors"
	"github.com/kbukum/kravl/pack"
)

// Codec converts between values and bytes in one format.
type Codec interface {
	// Name is the short format name, e.g. "json".
	Name() string
	// Ext is the preferred file extension including the dot.
	Ext() string
	// Mime is the MIME type of encoded content.
	Mime() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type codec struct {
	name, ext, mime string
	marshal         func(any) ([]byte, error)
	unmarshal       func([]byte, any) error
}

func (c codec) Name() string                       { return c.name }
func (c codec) Ext() string                        { return c.ext }
func (c codec) Mime() string                       { return c.mime }
func (c codec) Marshal(v any) ([]byte, error)      { return c.marshal(v) }
func (c codec) Unmarshal(data []byte, v any) error { return c.unmarshal(data, v) }

// Built-in codecs.
var (
	JSON Codec = codec{name: "json", ext: ".json", mime: "application/json", marshal: json.Marshal, unmarshal: json.Unmarshal}
	YAML Codec = codec{name: "yaml", ext: ".yaml", mime: "application/yaml", marshal: yaml.Marshal, unmarshal: func(data []byte, v any) error { return yaml.Unmarshal(data, v) }}
	TOML Codec = codec{name: "toml", ext: ".toml", mime: "application/toml", marshal: toml.Marshal, unmarshal: toml.Unmarshal}
)

var (
	codecsMu sync.RWMutex
	byExt    = map[string]Codec{".json": JSON, ".yaml": YAML, ".yml": YAML, ".toml": TOML}
	byName   = map[string]Codec{"json": JSON, "yaml": YAML, "yml": YAML, "toml": TOML}
)

// Register adds a codec for its name and the given extensions.
func Register(c Codec, exts ...string) {
	codecsMu.Lock()
	defer codecsMu.Unlock()
	byName[c.Name()] = c
	byExt[strings.ToLower(c.Ext())] = c
	for _, ext := range exts {
		byExt[strings.ToLower(ext)] = c
	}
}

// ForPath returns the codec for the extension of p.
func ForPath(p string) (Codec, error) {
	ext := strings.ToLower(path.Ext(p))
	codecsMu.RLock()
	c, ok := byExt[ext]
	codecsMu.RUnlock()
	if !ok {
		return nil, errors.Unsupported("serialization format", ext).WithDetail("path", p)
	}
	return c, nil
}

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	codecsMu.RLock()
	c, ok := byName[strings.ToLower(name)]
	codecsMu.RUnlock()
	if !ok {
		return nil, errors.Unsupported("serialization format", name)
	}
	return c, nil
}

// forPackage picks a codec by path, falling back to the MIME type.
func forPackage(p *pack.Package) (Codec, error) {
	c, err := ForPath(p.Path)
	if err == nil {
		return c, nil
	}
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	for _, candidate := range byName {
		if pack.MatchMime(candidate.Mime(), p.Mime) {
			return candidate, nil
		}
	}
	return nil, err
}
