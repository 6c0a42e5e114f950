// Package observer turns a live page into an observation: every
// interactive element is tagged with a short-lived numeric identifier and
// the page is rendered either as marked-up text or as an annotated
// screenshot.
package observer

import (
	"context"
	_ "embed"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/speckled/api/schemas"
)

//go:embed tag.js
var tagScript string

//go:embed overlay.js
var overlayScript string

const removeOverlayScript = `(() => { document.querySelectorAll('.__speckled-overlay').forEach(n => n.remove()); return true; })()`

type taggedElement struct {
	ID   int     `json:"id"`
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type tagResult struct {
	Elements []taggedElement `json:"elements"`
	HTML     string          `json:"html"`
	URL      string          `json:"url"`
	Title    string          `json:"title"`
}

// Provider implements schemas.ObservationProvider. It is stateless and
// safe for concurrent use across pages.
type Provider struct {
	logger   *zap.Logger
	mode     schemas.ObservationMode
	renderer *renderer
}

var _ schemas.ObservationProvider = (*Provider)(nil)

// NewProvider creates a provider for the given observation mode.
func NewProvider(logger *zap.Logger, mode schemas.ObservationMode) (*Provider, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unsupported observation mode %q", mode)
	}
	return &Provider{
		logger:   logger.Named("observer"),
		mode:     mode,
		renderer: newRenderer(),
	}, nil
}

// Locator returns the CSS selector addressing a tagged element.
func Locator(id int) schemas.Locator {
	return schemas.Locator(fmt.Sprintf(`[%s="%d"]`, attrID, id))
}

// Describe tags the page and renders it in the provider's mode.
func (p *Provider) Describe(ctx context.Context, page schemas.Page) (schemas.Observation, error) {
	var tagged tagResult
	if err := page.Evaluate(ctx, tagScript, &tagged); err != nil {
		return schemas.Observation{}, fmt.Errorf("tag page elements: %w", err)
	}

	ids := make(map[int]schemas.Locator, len(tagged.Elements))
	for _, el := range tagged.Elements {
		ids[el.ID] = Locator(el.ID)
	}
	p.logger.Debug("Tagged page.", zap.String("url", tagged.URL), zap.Int("elements", len(ids)))

	if p.mode == schemas.ObservationImage {
		img, err := p.screenshot(ctx, page)
		if err != nil {
			return schemas.Observation{}, err
		}
		return schemas.Observation{Mode: schemas.ObservationImage, Image: img, MIMEType: "image/png", IDs: ids}, nil
	}

	text, err := p.renderer.render(tagged.HTML)
	if err != nil {
		return schemas.Observation{}, fmt.Errorf("render page text: %w", err)
	}
	if tagged.Title != "" || tagged.URL != "" {
		text = fmt.Sprintf("Page: %s (%s)\n\n%s", tagged.Title, tagged.URL, text)
	}
	return schemas.Observation{Mode: schemas.ObservationText, Text: text, IDs: ids}, nil
}

// screenshot captures the viewport with marker labels drawn over every
// tagged element. The labels are removed again even when the capture
// fails.
func (p *Provider) screenshot(ctx context.Context, page schemas.Page) ([]byte, error) {
	var drawn int
	if err := page.Evaluate(ctx, overlayScript, &drawn); err != nil {
		return nil, fmt.Errorf("draw element labels: %w", err)
	}
	defer func() {
		var ok bool
		if err := page.Evaluate(context.WithoutCancel(ctx), removeOverlayScript, &ok); err != nil {
			p.logger.Warn("Failed to remove element labels.", zap.Error(err))
		}
	}()

	img, err := page.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	p.logger.Debug("Captured annotated screenshot.", zap.Int("labels", drawn), zap.Int("bytes", len(img)))
	return img, nil
}
