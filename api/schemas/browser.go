package schemas

import "context"

// Locator is an opaque handle the driver uses to find a live element.
// The bundled driver uses CSS selectors.
type Locator string

// Driver is the set of page primitives the dispatcher may call. Every
// primitive is blocking and fallible.
type Driver interface {
	Click(ctx context.Context, loc Locator) error
	DoubleClick(ctx context.Context, loc Locator) error
	Press(ctx context.Context, loc Locator, key string) error
	Fill(ctx context.Context, loc Locator, text string) error
	Navigate(ctx context.Context, url string) error
}

// Page is a live, isolated page (tab + browser context) owned by a single
// run. Besides the driver primitives it exposes what the observation
// provider needs to describe it.
type Page interface {
	Driver
	// Evaluate runs a script in the page and unmarshals its result into res.
	Evaluate(ctx context.Context, script string, res any) error
	// Screenshot captures the current viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	// Close releases the page. It is safe to call more than once.
	Close() error
}

// PageOpener creates fresh, independent pages.
type PageOpener interface {
	NewPage(ctx context.Context) (Page, error)
}
