// Package host defines the capability interface formpilot uses to inspect and
// drive the host application, independent of the browser binding behind it.
//
// Lookups search the content frame first and fall back to the top-level page,
// mirroring how the host nests every workflow screen inside one frame.
package host

import (
	"context"
	"errors"
	"strings"

	"github.com/entrhq/formpilot/pkg/inspect"
	"github.com/entrhq/formpilot/pkg/types"
)

// ErrNotFound is returned when no element satisfies a lookup.
var ErrNotFound = errors.New("host: target not found")

// Role groups elements by how a user would activate them.
type Role string

const (
	// RoleControl covers buttons and button-like inputs.
	RoleControl Role = "control"

	// RoleClickable covers controls plus links and elements with click handlers.
	RoleClickable Role = "clickable"
)

// Kind groups form fields for attribute lookups.
type Kind string

const (
	KindInput    Kind = "input"
	KindTextArea Kind = "textarea"
	KindSelect   Kind = "select"
	KindFile     Kind = "file"
	KindField    Kind = "field" // any input, textarea or select
)

// Document is the collaborating document of the host application.
type Document interface {
	// Snapshot captures the page and content frame. An error means the
	// content could not be read; callers treat it as an unknown screen.
	Snapshot(ctx context.Context) (*inspect.Snapshot, error)

	// FindByVisibleText returns the first element of the role, in document
	// order, whose text or value contains any of texts, ignoring case.
	FindByVisibleText(ctx context.Context, role Role, texts ...string) (Handle, error)

	// FindByAttributeSubstring returns the first field of the kind whose
	// attribute contains needle, ignoring case.
	FindByAttributeSubstring(ctx context.Context, kind Kind, attribute, needle string) (Handle, error)

	// FindByID returns the element with the given id.
	FindByID(ctx context.Context, id string) (Handle, error)

	// OpenURL opens url in a new browser context.
	OpenURL(ctx context.Context, url string) error
}

// Observer is implemented by documents that can report content-tree mutations.
// The returned channel receives a value after one or more mutations and is
// closed when ctx ends.
type Observer interface {
	Mutations(ctx context.Context) (<-chan struct{}, error)
}

// Handle is one element of the document. Mutating calls dispatch the same
// input/change events a native interaction would.
type Handle interface {
	// Tag returns the lower-case element name.
	Tag() string

	// Type returns the lower-case type attribute of inputs.
	Type(ctx context.Context) (string, error)

	Value(ctx context.Context) (string, error)
	SetValue(ctx context.Context, value string) error
	SetFiles(ctx context.Context, files []types.FileRef) error
	Click(ctx context.Context) error
	Check(ctx context.Context) error

	// Options returns the options of a select element.
	Options(ctx context.Context) ([]Option, error)
}

// Option is one entry of a select element.
type Option struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// Selector returns the CSS selector for the candidates of a role.
func (r Role) Selector() string {
	switch r {
	case RoleClickable:
		return `button, a, input[type="button"], input[type="submit"], span[onclick], div[onclick], td.actie`
	default:
		return `button, input[type="button"], input[type="submit"]`
	}
}

// AttributeSelector returns a case-insensitive CSS attribute selector for the
// fields of kind k.
func (k Kind) AttributeSelector(attribute, needle string) string {
	quoted := strings.ReplaceAll(needle, `"`, `\"`)
	match := `[` + attribute + `*="` + quoted + `" i]`

	tags := k.tags()
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		if k == KindFile {
			parts = append(parts, `input[type="file"]`+match)
			continue
		}
		parts = append(parts, tag+match)
	}
	return strings.Join(parts, ", ")
}

// Matches reports whether an element with the given tag and type attribute
// belongs to kind k.
func (k Kind) Matches(tag, inputType string) bool {
	if k == KindFile {
		return tag == "input" && strings.EqualFold(inputType, "file")
	}
	for _, t := range k.tags() {
		if t == tag {
			return true
		}
	}
	return false
}

func (k Kind) tags() []string {
	switch k {
	case KindInput, KindFile:
		return []string{"input"}
	case KindTextArea:
		return []string{"textarea"}
	case KindSelect:
		return []string{"select"}
	default:
		return []string{"input", "textarea", "select"}
	}
}

// MatchesText reports whether label contains any of texts, ignoring case.
func MatchesText(label string, texts []string) bool {
	folded := inspect.Fold(strings.TrimSpace(label))
	if folded == "" {
		return false
	}
	for _, text := range texts {
		if text == "" {
			continue
		}
		if strings.Contains(folded, inspect.Fold(text)) {
			return true
		}
	}
	return false
}

// MatchOption picks the option whose value equals value, ignoring case, and
// otherwise the first option whose text contains value. Options with an
// empty value are placeholders and never match. It returns false when
// nothing matches.
func MatchOption(options []Option, value string) (Option, bool) {
	want := inspect.Fold(strings.TrimSpace(value))
	if want == "" {
		return Option{}, false
	}
	for _, opt := range options {
		if opt.Value != "" && inspect.Fold(opt.Value) == want {
			return opt, true
		}
	}
	for _, opt := range options {
		if opt.Value != "" && strings.Contains(inspect.Fold(opt.Text), want) {
			return opt, true
		}
	}
	return Option{}, false
}
