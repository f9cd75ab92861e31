package pack

import (
	"path"
	"strings"
)

// Matcher selects packages, for example the ones a sink appends to.
type Matcher interface {
	Match(p *Package) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(p *Package) bool

// Match calls f(p).
func (f MatcherFunc) Match(p *Package) bool { return f(p) }

// MatchMimeType matches packages whose MIME type matches pattern, see MatchMime.
func MatchMimeType(pattern string) Matcher {
	return MatcherFunc(func(p *Package) bool {
		return MatchMime(pattern, p.Mime)
	})
}

// MatchGlob matches packages whose path matches a slash-separated glob.
// Each segment uses path.Match syntax and a "**" segment matches any number
// of directories, so "**/*.json" matches "a.json" and "a/b/c.json".
func MatchGlob(pattern string) Matcher {
	segs := strings.Split(strings.Trim(pattern, "/"), "/")
	return MatcherFunc(func(p *Package) bool {
		return matchSegments(segs, strings.Split(p.Path, "/"))
	})
}

// GlobMatch reports whether name matches pattern with MatchGlob semantics.
func GlobMatch(pattern, name string) bool {
	return matchSegments(strings.Split(strings.Trim(pattern, "/"), "/"), strings.Split(name, "/"))
}

// Any matches when at least one of ms matches. With no matchers it never matches.
func Any(ms ...Matcher) Matcher {
	return MatcherFunc(func(p *Package) bool {
		for _, m := range ms {
			if m.Match(p) {
				return true
			}
		}
		return false
	})
}

func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		ok, err := path.Match(pattern[0], name[0])
		if err != nil || !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}
