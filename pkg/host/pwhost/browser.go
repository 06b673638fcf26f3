// Package pwhost binds host.Document to a Chromium tab driven by Playwright.
//
// The browser is either attached over the DevTools protocol, which lets the
// practitioner keep working in their own window, or launched with a
// persistent profile so the host login survives restarts.
package pwhost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/formpilot/pkg/host"
	"github.com/entrhq/formpilot/pkg/logging"
)

// Options configures Connect.
type Options struct {
	// CDPURL attaches to a running browser. When empty a browser is launched.
	CDPURL string

	Headless    bool
	UserDataDir string

	// StartURL is opened when no tab matches Matcher.
	StartURL string

	// ContentFrame selects the frame holding the workflow screens.
	ContentFrame string

	// SkipInstall assumes the Playwright driver and browsers are present.
	SkipInstall bool

	Matcher *host.URLMatcher
	Logger  *logging.Logger
}

// Browser owns the Playwright driver and the selected host tab.
type Browser struct {
	mu         sync.Mutex
	playwright *playwright.Playwright
	browser    playwright.Browser
	context    playwright.BrowserContext
	attached   bool
	doc        *Document
	log        *logging.Logger
}

// Connect starts Playwright, then attaches to or launches Chromium and
// selects the host tab.
func Connect(ctx context.Context, opts Options) (*Browser, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Nop("pwhost")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Discard driver output so it does not interleave with the terminal UI
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if !opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	b := &Browser{playwright: pw, log: opts.Logger}
	if err := b.open(opts); err != nil {
		b.Close()
		return nil, err
	}

	page, err := b.selectPage(opts)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.log.Infof("attached to %s", page.URL())

	b.doc = newDocument(b, page, opts.ContentFrame, b.log)
	return b, nil
}

func (b *Browser) open(opts Options) error {
	if opts.CDPURL != "" {
		browser, err := b.playwright.Chromium.ConnectOverCDP(opts.CDPURL)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", opts.CDPURL, err)
		}
		b.browser = browser
		b.attached = true
		if contexts := browser.Contexts(); len(contexts) > 0 {
			b.context = contexts[0]
			return nil
		}
		bctx, err := browser.NewContext()
		if err != nil {
			return fmt.Errorf("failed to create context: %w", err)
		}
		b.context = bctx
		return nil
	}

	if opts.UserDataDir != "" {
		bctx, err := b.playwright.Chromium.LaunchPersistentContext(opts.UserDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(opts.Headless),
		})
		if err != nil {
			return fmt.Errorf("failed to launch browser: %w", err)
		}
		b.context = bctx
		return nil
	}

	browser, err := b.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	b.browser = browser
	bctx, err := browser.NewContext()
	if err != nil {
		return fmt.Errorf("failed to create context: %w", err)
	}
	b.context = bctx
	return nil
}

func (b *Browser) selectPage(opts Options) (playwright.Page, error) {
	pages := b.context.Pages()
	urls := make([]string, len(pages))
	for i, p := range pages {
		urls[i] = p.URL()
	}
	if i := host.SelectPage(urls, opts.Matcher); i >= 0 {
		return pages[i], nil
	}

	if opts.StartURL == "" {
		return nil, errors.New("no open tab matches the host URL patterns")
	}
	page, err := b.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	if _, err := page.Goto(opts.StartURL); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", opts.StartURL, err)
	}
	return page, nil
}

// newContext returns a fresh browser context for OpenURL. A persistent
// profile has no browser handle, so its pages share the profile context.
func (b *Browser) newContext() (playwright.BrowserContext, error) {
	if b.browser == nil {
		return b.context, nil
	}
	return b.browser.NewContext()
}

// Document returns the host document of the selected tab.
func (b *Browser) Document() *Document {
	return b.doc
}

// Close releases the document, closes a launched browser and stops the
// driver. An attached browser keeps running.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.doc != nil {
		b.doc.release()
		b.doc = nil
	}

	var errs []error
	if !b.attached {
		if b.context != nil {
			if err := b.context.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if b.browser != nil {
			if err := b.browser.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	b.context = nil
	b.browser = nil

	if b.playwright != nil {
		if err := b.playwright.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		b.playwright = nil
	}
	return errors.Join(errs...)
}
