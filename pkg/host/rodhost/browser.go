// Package rodhost binds host.Document to a Chromium tab driven by go-rod.
package rodhost

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/logging"
)

// Options configures Connect.
type Options struct {
	// ControlURL attaches to a running browser. It may be a DevTools
	// websocket URL or the http address of the debugging port. When empty a
	// browser is launched.
	ControlURL string

	Headless    bool
	UserDataDir string

	// StartURL is opened when no tab matches Matcher.
	StartURL string

	// ContentFrame selects the frame holding the workflow screens.
	ContentFrame string

	Matcher *host.URLMatcher
	Logger  *logging.Logger
}

// Browser is a connected browser with the host tab selected.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	doc      *Document
	log      *logging.Logger
}

// Connect launches or attaches to a browser and selects the host tab.
func Connect(ctx context.Context, opts Options) (*Browser, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Nop("rodhost")
	}

	b := &Browser{log: opts.Logger}
	controlURL := opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(opts.Headless)
		if opts.UserDataDir != "" {
			l = l.UserDataDir(opts.UserDataDir)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		b.launcher = l
		controlURL = u
	} else {
		u, err := launcher.ResolveURL(controlURL)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve control URL %s: %w", controlURL, err)
		}
		controlURL = u
	}

	b.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.browser.Connect(); err != nil {
		b.cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.selectPage(opts)
	if err != nil {
		b.Close()
		return nil, err
	}
	info, _ := page.Info()
	if info != nil {
		b.log.Infof("attached to %s", info.URL)
	}

	doc, err := newDocument(b.browser, page, opts.ContentFrame, b.log)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.doc = doc
	return b, nil
}

func (b *Browser) selectPage(opts Options) (*rod.Page, error) {
	pages, err := b.browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	urls := make([]string, len(pages))
	for i, p := range pages {
		if info, err := p.Info(); err == nil {
			urls[i] = info.URL
		}
	}
	if i := host.SelectPage(urls, opts.Matcher); i >= 0 {
		return pages[i], nil
	}

	if opts.StartURL == "" {
		return nil, errors.New("no open tab matches the host URL patterns")
	}
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: opts.StartURL})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", opts.StartURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", opts.StartURL, err)
	}
	return page, nil
}

// Document returns the host document of the selected tab.
func (b *Browser) Document() *Document {
	return b.doc
}

// Close releases the document and, for a launched browser, closes it. An
// attached browser keeps running.
func (b *Browser) Close() error {
	if b.doc != nil {
		b.doc.release()
	}
	if b.launcher == nil {
		return nil
	}
	err := b.browser.Close()
	b.cleanup()
	return err
}

func (b *Browser) cleanup() {
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}
