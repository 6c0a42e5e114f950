// internal/browser/page.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/speckled/api/schemas"
)

// Page is one tab in its own browser context. It implements schemas.Page.
// Locators are CSS selectors.
type Page struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	actionTimeout time.Duration

	closeOnce sync.Once
	onClose   func()
}

var _ schemas.Page = (*Page)(nil)

// ID returns the page identifier assigned by the manager.
func (p *Page) ID() string { return p.id }

// run executes actions on this page under the operation context.
func (p *Page) run(ctx context.Context, op string, actions ...chromedp.Action) error {
	if p.ctx.Err() != nil {
		return fmt.Errorf("%s: page is closed: %w", op, p.ctx.Err())
	}
	if p.actionTimeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.actionTimeout)
			defer cancel()
		}
	}
	runCtx, cancel := combineContext(p.ctx, ctx)
	defer cancel()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return fmt.Errorf("%s: %w (%v)", op, ctxErr, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Navigate loads url and waits for the document body.
func (p *Page) Navigate(ctx context.Context, url string) error {
	p.logger.Debug("Navigating.", zap.String("url", url))
	return p.run(ctx, "navigate", chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery))
}

// Click scrolls the element into view and clicks it.
func (p *Page) Click(ctx context.Context, loc schemas.Locator) error {
	sel := string(loc)
	return p.run(ctx, "click",
		chromedp.ScrollIntoView(sel, chromedp.ByQuery),
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Click(sel, chromedp.ByQuery),
	)
}

// DoubleClick scrolls the element into view and double-clicks it.
func (p *Page) DoubleClick(ctx context.Context, loc schemas.Locator) error {
	sel := string(loc)
	return p.run(ctx, "double_click",
		chromedp.ScrollIntoView(sel, chromedp.ByQuery),
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.DoubleClick(sel, chromedp.ByQuery),
	)
}

// Press focuses the element and sends one named key.
func (p *Page) Press(ctx context.Context, loc schemas.Locator, key string) error {
	seq, err := keyEvent(key)
	if err != nil {
		return err
	}
	sel := string(loc)
	return p.run(ctx, "press",
		chromedp.Focus(sel, chromedp.ByQuery),
		chromedp.KeyEvent(seq),
	)
}

// Fill replaces the element's value with text.
func (p *Page) Fill(ctx context.Context, loc schemas.Locator, text string) error {
	sel := string(loc)
	return p.run(ctx, "fill",
		chromedp.ScrollIntoView(sel, chromedp.ByQuery),
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, text, chromedp.ByQuery),
	)
}

// Evaluate runs script, awaiting a returned promise, and decodes the
// result into res.
func (p *Page) Evaluate(ctx context.Context, script string, res any) error {
	return p.run(ctx, "evaluate", chromedp.Evaluate(script, res, func(ep *runtime.EvaluateParams) *runtime.EvaluateParams {
		return ep.WithAwaitPromise(true)
	}))
}

// Screenshot captures the viewport as PNG.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, "screenshot", chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close closes the tab and disposes of its browser context.
func (p *Page) Close() error {
	p.closeOnce.Do(func() {
		p.cancel()
		if p.onClose != nil {
			p.onClose()
		}
		p.logger.Debug("Page closed.")
	})
	return nil
}
