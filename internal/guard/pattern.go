package guard

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultProtected is the route pattern set that requires a signed-in user.
var DefaultProtected = []string{
	"/",
	"/upcoming",
	"/meeting(.*)",
	"/previous",
	"/recordings",
	"/personal-room",
}

// Pattern is a literal path or a literal prefix followed by a wildcard.
type Pattern struct {
	raw      string
	prefix   string
	wildcard bool
}

// ParsePattern accepts "/path", "/prefix(.*)" and "/prefix*". A wildcard
// pattern matches any continuation, including none and one without a
// separator: "/meeting(.*)" covers "/meeting", "/meeting/1" and "/meetings".
func ParsePattern(s string) (Pattern, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Pattern{}, fmt.Errorf("pattern is empty")
	}
	if !strings.HasPrefix(raw, "/") {
		return Pattern{}, fmt.Errorf("pattern %q must begin with /", raw)
	}
	p := Pattern{raw: raw, prefix: raw}
	switch {
	case strings.HasSuffix(raw, "(.*)"):
		p.prefix = strings.TrimSuffix(raw, "(.*)")
		p.wildcard = true
	case strings.HasSuffix(raw, "*"):
		p.prefix = strings.TrimSuffix(raw, "*")
		p.wildcard = true
	}
	if strings.ContainsAny(p.prefix, "*()[]?") {
		return Pattern{}, fmt.Errorf("pattern %q: only a trailing wildcard is supported", raw)
	}
	if p.prefix == "" {
		p.prefix = "/"
	}
	return p, nil
}

func (p Pattern) Match(path string) bool {
	if p.wildcard {
		return strings.HasPrefix(path, p.prefix)
	}
	if path == p.prefix {
		return true
	}
	// "/recordings/" is the same page as "/recordings".
	return p.prefix != "/" && path == p.prefix+"/"
}

func (p Pattern) String() string {
	return p.raw
}

// Matcher is an ordered, immutable set of protected route patterns.
type Matcher struct {
	patterns []Pattern
}

func NewMatcher(raw []string) (*Matcher, error) {
	m := &Matcher{patterns: make([]Pattern, 0, len(raw))}
	for _, r := range raw {
		p, err := ParsePattern(r)
		if err != nil {
			return nil, err
		}
		m.patterns = append(m.patterns, p)
	}
	return m, nil
}

func MustMatcher(raw ...string) *Matcher {
	m, err := NewMatcher(raw)
	if err != nil {
		panic(err)
	}
	return m
}

// Protected reports whether path matches any pattern. Patterns are tested in
// order and the first match wins.
func (m *Matcher) Protected(path string) bool {
	_, ok := m.Match(path)
	return ok
}

// Match returns the first pattern matching path.
func (m *Matcher) Match(path string) (Pattern, bool) {
	if m == nil {
		return Pattern{}, false
	}
	for _, p := range m.patterns {
		if p.Match(path) {
			return p, true
		}
	}
	return Pattern{}, false
}

func (m *Matcher) Patterns() []string {
	out := make([]string, 0, len(m.patterns))
	for _, p := range m.patterns {
		out = append(out, p.raw)
	}
	return out
}

var (
	DefaultAPIPrefixes      = []string{"/api", "/trpc"}
	DefaultInternalPrefixes = []string{"/_next", "/static"}
)

var staticAsset = regexp.MustCompile(`^/.+\.[\w]+$`)

// RunMatcher decides whether the guard runs for a path at all. Static assets
// and internal prefixes are skipped; the root and API paths always run.
type RunMatcher struct {
	APIPrefixes      []string
	InternalPrefixes []string
}

func DefaultRunMatcher() RunMatcher {
	return RunMatcher{
		APIPrefixes:      DefaultAPIPrefixes,
		InternalPrefixes: DefaultInternalPrefixes,
	}
}

func (m RunMatcher) ShouldRun(path string) bool {
	if path == "" || path == "/" {
		return true
	}
	for _, p := range m.APIPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, p := range m.InternalPrefixes {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return !staticAsset.MatchString(path)
}
