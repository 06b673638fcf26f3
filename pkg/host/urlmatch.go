package host

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// URLMatcher decides which browser pages belong to the host application.
type URLMatcher struct {
	allowed []glob.Glob
	denied  []glob.Glob
}

// NewURLMatcher compiles allowed and denied URL patterns. A '*' matches any
// run of characters, including '/'.
func NewURLMatcher(allowed, denied []string) (*URLMatcher, error) {
	m := &URLMatcher{}

	for _, pattern := range allowed {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed pattern '%s': %w", pattern, err)
		}
		m.allowed = append(m.allowed, g)
	}

	for _, pattern := range denied {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid denied pattern '%s': %w", pattern, err)
		}
		m.denied = append(m.denied, g)
	}

	return m, nil
}

// Match returns true if url is allowed by the pattern rules.
func (m *URLMatcher) Match(url string) bool {
	// Denied patterns take precedence
	for _, pattern := range m.denied {
		if pattern.Match(url) {
			return false
		}
	}

	if len(m.allowed) == 0 {
		return true
	}

	for _, pattern := range m.allowed {
		if pattern.Match(url) {
			return true
		}
	}
	return false
}

// SelectPage returns the index of the first URL in urls that m matches, or
// -1. Blank and browser-internal pages never match. A nil matcher accepts
// every other page.
func SelectPage(urls []string, m *URLMatcher) int {
	for i, u := range urls {
		if u == "" || u == "about:blank" || strings.HasPrefix(u, "chrome://") || strings.HasPrefix(u, "devtools://") {
			continue
		}
		if m == nil || m.Match(u) {
			return i
		}
	}
	return -1
}
