package pwhost

import (
	"context"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/types"
)

const (
	tagFunction   = `function() { return this.tagName.toLowerCase() }`
	valueFunction = `function() { return this.value == null ? '' : String(this.value) }`
)

type element struct {
	el  playwright.ElementHandle
	tag string
}

func wrap(el playwright.ElementHandle) (host.Handle, error) {
	tag, err := evalString(el, tagFunction, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read element tag: %w", err)
	}
	return &element{el: el, tag: tag}, nil
}

// bound turns a function using this into one Playwright calls with the
// element as its first argument.
func bound(fn string) string {
	return "(el, arg) => (" + fn + ").call(el, arg)"
}

func evalString(el playwright.ElementHandle, fn string, arg interface{}) (string, error) {
	res, err := el.Evaluate(bound(fn), arg)
	if err != nil {
		return "", err
	}
	s, _ := res.(string)
	return s, nil
}

func (e *element) Tag() string {
	return e.tag
}

func (e *element) Type(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t, err := e.el.GetAttribute("type")
	if err != nil {
		return "", err
	}
	return strings.ToLower(t), nil
}

func (e *element) Value(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return evalString(e.el, valueFunction, nil)
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
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := e.el.Evaluate(bound(host.AssignFunction), value)
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
	inputs := make([]playwright.InputFile, 0, len(files))
	for _, f := range files {
		inputs = append(inputs, playwright.InputFile{
			Name:     f.Name,
			MimeType: f.MimeType,
			Buffer:   f.Data,
		})
	}
	return e.el.SetInputFiles(inputs, playwright.ElementHandleSetInputFilesOptions{Timeout: timeout(ctx)})
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.el.Click(playwright.ElementHandleClickOptions{Timeout: timeout(ctx)})
}

func (e *element) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.el.Check(playwright.ElementHandleCheckOptions{Timeout: timeout(ctx)})
}

func (e *element) Options(ctx context.Context) ([]host.Option, error) {
	if e.tag != "select" {
		return nil, fmt.Errorf("element is not a select")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := e.el.Evaluate(bound(host.OptionsFunction), nil)
	if err != nil {
		return nil, err
	}
	items, _ := res.([]interface{})
	options := make([]host.Option, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		text, _ := m["text"].(string)
		value, _ := m["value"].(string)
		options = append(options, host.Option{Text: text, Value: value})
	}
	return options, nil
}
