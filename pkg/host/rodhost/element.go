package rodhost

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/types"
)

const (
	tagFunction   = `function() { return this.tagName.toLowerCase() }`
	valueFunction = `function() { return this.value == null ? '' : String(this.value) }`
	checkFunction = `function() {
  if (this.checked) return;
  this.checked = true;
  this.dispatchEvent(new Event('change', { bubbles: true }));
}`
	clickFunction = `function() { this.click() }`
)

type element struct {
	doc *Document
	el  *rod.Element
	tag string
}

func wrap(doc *Document, el *rod.Element) (host.Handle, error) {
	res, err := el.Eval(tagFunction)
	if err != nil {
		return nil, fmt.Errorf("failed to read element tag: %w", err)
	}
	return &element{doc: doc, el: el, tag: res.Value.Str()}, nil
}

func (e *element) Tag() string {
	return e.tag
}

func (e *element) Type(ctx context.Context) (string, error) {
	attr, err := e.el.Context(ctx).Attribute("type")
	if err != nil {
		return "", err
	}
	if attr == nil {
		return "", nil
	}
	return strings.ToLower(*attr), nil
}

func (e *element) Value(ctx context.Context) (string, error) {
	res, err := e.el.Context(ctx).Eval(valueFunction)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *element) SetValue(ctx context.Context, value string) error {
	if e.tag == "select" {
		options, err := e.Options(ctx)
		if err != nil {
			return err
		}
		found := false
		for _, opt := range options {
			if opt.Value == value {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("no option with value %q: %w", value, host.ErrNotFound)
		}
	}
	_, err := e.el.Context(ctx).Eval(host.AssignFunction, value)
	return err
}

func (e *element) SetFiles(ctx context.Context, files []types.FileRef) error {
	inputType, err := e.Type(ctx)
	if err != nil {
		return err
	}
	if !host.KindFile.Matches(e.tag, inputType) {
		return fmt.Errorf("element is not a file input")
	}
	paths, err := e.doc.spill(files)
	if err != nil {
		return err
	}
	return e.el.Context(ctx).SetFiles(paths)
}

// Click presses the element with the mouse, falling back to a scripted click
// for elements that cannot be hovered, such as ones covered by an overlay.
func (e *element) Click(ctx context.Context) error {
	el := e.el.Context(ctx)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.doc.log.Debugf("mouse click failed, dispatching click: %v", err)
		_, err = el.Eval(clickFunction)
		return err
	}
	return nil
}

func (e *element) Check(ctx context.Context) error {
	_, err := e.el.Context(ctx).Eval(checkFunction)
	return err
}

func (e *element) Options(ctx context.Context) ([]host.Option, error) {
	if e.tag != "select" {
		return nil, fmt.Errorf("element is not a select")
	}
	res, err := e.el.Context(ctx).Eval(host.OptionsFunction)
	if err != nil {
		return nil, err
	}
	items := res.Value.Arr()
	options := make([]host.Option, 0, len(items))
	for _, item := range items {
		options = append(options, host.Option{
			Text:  item.Get("text").Str(),
			Value: item.Get("value").Str(),
		})
	}
	return options, nil
}
