package memdoc

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/types"
)

// element is a host.Handle over one parsed node.
type element struct {
	doc  *Document
	node *html.Node
}

func (e *element) Tag() string {
	return e.node.Data
}

func (e *element) Type(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return strings.ToLower(getAttr(e.node, "type")), nil
}

func (e *element) Value(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	switch e.node.Data {
	case "textarea":
		return textOf(e.node), nil
	case "select":
		var first *html.Node
		for _, opt := range optionNodes(e.node) {
			if first == nil {
				first = opt
			}
			if _, ok := lookupAttr(opt, "selected"); ok {
				return optionValue(opt), nil
			}
		}
		if first != nil {
			return optionValue(first), nil
		}
		return "", nil
	default:
		return getAttr(e.node, "value"), nil
	}
}

func (e *element) SetValue(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.doc.mu.Lock()
	switch e.node.Data {
	case "textarea":
		for c := e.node.FirstChild; c != nil; {
			next := c.NextSibling
			e.node.RemoveChild(c)
			c = next
		}
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: value})
	case "select":
		var chosen *html.Node
		for _, opt := range optionNodes(e.node) {
			if optionValue(opt) == value {
				chosen = opt
				break
			}
		}
		if chosen == nil {
			e.doc.mu.Unlock()
			return fmt.Errorf("no option with value %q: %w", value, host.ErrNotFound)
		}
		for _, opt := range optionNodes(e.node) {
			removeAttr(opt, "selected")
		}
		setAttr(chosen, "selected", "selected")
	default:
		setAttr(e.node, "value", value)
	}
	target := label(e.node)
	e.doc.mu.Unlock()

	e.doc.record(Action{Kind: "set_value", Target: target, Value: value})
	return nil
}

func (e *element) SetFiles(ctx context.Context, files []types.FileRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.doc.mu.Lock()
	if !host.KindFile.Matches(e.node.Data, getAttr(e.node, "type")) {
		e.doc.mu.Unlock()
		return fmt.Errorf("element %s is not a file input", label(e.node))
	}
	stored := make([]types.FileRef, len(files))
	copy(stored, files)
	e.doc.files[e.node] = stored
	target := label(e.node)
	e.doc.mu.Unlock()

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	e.doc.record(Action{Kind: "set_files", Target: target, Value: strings.Join(names, ",")})
	return nil
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.doc.mu.Lock()
	target := label(e.node)
	e.doc.mu.Unlock()

	e.doc.record(Action{Kind: "click", Target: target})
	for _, hook := range e.doc.hooksFor(e.node) {
		hook(e.doc)
	}
	return nil
}

func (e *element) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.doc.mu.Lock()
	setAttr(e.node, "checked", "checked")
	target := label(e.node)
	e.doc.mu.Unlock()

	e.doc.record(Action{Kind: "check", Target: target})
	return nil
}

func (e *element) Options(ctx context.Context) ([]host.Option, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.node.Data != "select" {
		return nil, fmt.Errorf("element %s is not a select", label(e.node))
	}
	var out []host.Option
	for _, opt := range optionNodes(e.node) {
		out = append(out, host.Option{
			Text:  strings.TrimSpace(textOf(opt)),
			Value: optionValue(opt),
		})
	}
	return out, nil
}

func matchesRole(n *html.Node, role host.Role) bool {
	switch n.Data {
	case "button":
		return true
	case "input":
		t := strings.ToLower(getAttr(n, "type"))
		return t == "button" || t == "submit"
	}
	if role != host.RoleClickable {
		return false
	}
	switch n.Data {
	case "a":
		return true
	case "span", "div":
		_, ok := lookupAttr(n, "onclick")
		return ok
	case "td":
		for _, class := range strings.Fields(getAttr(n, "class")) {
			if class == "actie" {
				return true
			}
		}
	}
	return false
}

// visibleText is the value of button-like inputs and the text content of
// everything else.
func visibleText(n *html.Node) string {
	if n.Data == "input" {
		return getAttr(n, "value")
	}
	return textOf(n)
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func optionNodes(sel *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "option" {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(sel)
	return out
}

func optionValue(opt *html.Node) string {
	if v, ok := lookupAttr(opt, "value"); ok {
		return v
	}
	return strings.TrimSpace(textOf(opt))
}

func findNode(n *html.Node, fn func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && fn(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, fn); found != nil {
			return found
		}
	}
	return nil
}

func label(n *html.Node) string {
	if id := getAttr(n, "id"); id != "" {
		return id
	}
	if name := getAttr(n, "name"); name != "" {
		return name
	}
	return strings.TrimSpace(visibleText(n))
}

func getAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}
