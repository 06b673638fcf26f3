package inspect

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
)

// Scope is one parsed document: the host page or its content frame.
type Scope struct {
	URL    string
	root   *html.Node
	text   string
	folded string
}

// Snapshot captures the host page and its content frame at one moment.
type Snapshot struct {
	// URL is the address of the top-level page.
	URL string

	// Main is the top-level document.
	Main *Scope

	// Frame is the content frame holding the wizard; nil when the frame is
	// absent or could not be read.
	Frame *Scope
}

// ParseScope parses markup into a Scope.
func ParseScope(url, markup string) (*Scope, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var builder strings.Builder
	collectText(root, &builder)
	text := strings.Join(strings.Fields(builder.String()), " ")

	return &Scope{
		URL:    url,
		root:   root,
		text:   text,
		folded: Fold(text),
	}, nil
}

// NewSnapshot parses the page markup and, when frameMarkup is non-empty, the
// content frame markup.
func NewSnapshot(pageURL, pageMarkup, frameURL, frameMarkup string) (*Snapshot, error) {
	main, err := ParseScope(pageURL, pageMarkup)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{URL: pageURL, Main: main}
	if frameMarkup != "" {
		frame, err := ParseScope(frameURL, frameMarkup)
		if err != nil {
			return nil, err
		}
		snap.Frame = frame
	}
	return snap, nil
}

// Target returns the scope holding the wizard: the content frame when present,
// otherwise the top-level page. It returns nil for a nil snapshot.
func (s *Snapshot) Target() *Scope {
	if s == nil {
		return nil
	}
	if s.Frame != nil {
		return s.Frame
	}
	return s.Main
}

// CombinedText returns the page text followed by the frame text.
func (s *Snapshot) CombinedText() string {
	if s == nil {
		return ""
	}
	var parts []string
	if s.Main != nil {
		parts = append(parts, s.Main.text)
	}
	if s.Frame != nil {
		parts = append(parts, s.Frame.text)
	}
	return strings.Join(parts, " ")
}

// Text returns the whitespace-normalised text content of the scope.
func (sc *Scope) Text() string {
	return sc.text
}

// ContainsText reports whether the scope text contains phrase, ignoring case.
func (sc *Scope) ContainsText(phrase string) bool {
	return strings.Contains(sc.folded, Fold(phrase))
}

// HasFileInput reports whether the scope contains an input of type file.
func (sc *Scope) HasFileInput() bool {
	return findElement(sc.root, func(n *html.Node) bool {
		return n.Data == "input" && strings.EqualFold(attr(n, "type"), "file")
	}) != nil
}

// HasElementID reports whether an element with the given id exists.
func (sc *Scope) HasElementID(id string) bool {
	return findElement(sc.root, func(n *html.Node) bool {
		return attr(n, "id") == id
	}) != nil
}

// HasSubmitControl reports whether the scope contains a button or a submit input.
func (sc *Scope) HasSubmitControl() bool {
	return findElement(sc.root, func(n *html.Node) bool {
		if n.Data == "button" {
			return true
		}
		return n.Data == "input" && strings.EqualFold(attr(n, "type"), "submit")
	}) != nil
}

// HasFieldLike reports whether an element with one of the given tags has an
// attribute from attrs whose value contains needle, ignoring case.
func (sc *Scope) HasFieldLike(tags, attrs []string, needle string) bool {
	folded := Fold(needle)
	return findElement(sc.root, func(n *html.Node) bool {
		if !containsString(tags, n.Data) {
			return false
		}
		for _, name := range attrs {
			if strings.Contains(Fold(attr(n, name)), folded) {
				return true
			}
		}
		return false
	}) != nil
}

// Fold returns s case-folded for caseless comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether s contains substr, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}

// collectText appends the text nodes below n, skipping non-rendered elements.
func collectText(n *html.Node, builder *strings.Builder) {
	if n.Type == html.ElementNode && isSkippedElement(n.Data) {
		return
	}
	if n.Type == html.TextNode {
		builder.WriteString(n.Data)
		builder.WriteString(" ")
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, builder)
	}
}

// findElement returns the first element node in document order matching fn.
func findElement(n *html.Node, fn func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && fn(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, fn); found != nil {
			return found
		}
	}
	return nil
}

// isSkippedElement returns true for elements whose content is never rendered
func isSkippedElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "template":
		return true
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
