// internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/config"
)

// Manager owns one browser process and hands out isolated pages. The
// browser is launched lazily on the first NewPage call.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	// initMu serializes launches. A failed launch leaves launched false,
	// so the next NewPage tries again.
	initMu   sync.Mutex
	launched bool

	mu     sync.Mutex
	pages  map[string]*Page
	closed bool
}

var _ schemas.PageOpener = (*Manager)(nil)

var errManagerClosed = errors.New("browser manager is closed")

// NewManager creates a browser manager. The browser process is started on
// first use.
func NewManager(logger *zap.Logger, cfg config.BrowserConfig) *Manager {
	m := &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
		pages:  make(map[string]*Page),
	}
	m.logger.Debug("Browser manager created (initialization deferred).")
	return m
}

// initialize launches the browser. The process outlives ctx and is tied
// to the manager instead; ctx only bounds how long the caller waits for
// the launch.
func (m *Manager) initialize(ctx context.Context) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()
	if m.launched {
		return nil
	}
	if m.isClosed() {
		return errManagerClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.logger.Info("Launching browser.", zap.Bool("headless", m.cfg.Headless))
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), DefaultAllocatorOptions(m.cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(m.logger.Sugar().Debugf),
		chromedp.WithErrorf(m.logger.Sugar().Warnf),
	)

	// The first Run must use the browser context itself; a derived
	// context with a shorter lifetime would take the browser down with it.
	launched := make(chan error, 1)
	go func() { launched <- chromedp.Run(browserCtx) }()

	select {
	case err := <-launched:
		if err != nil {
			browserCancel()
			allocCancel()
			return fmt.Errorf("failed to launch browser: %w", err)
		}
	case <-ctx.Done():
		browserCancel()
		allocCancel()
		<-launched
		m.logger.Debug("Browser launch abandoned.", zap.Error(ctx.Err()))
		return ctx.Err()
	}

	m.allocCtx, m.allocCancel = allocCtx, allocCancel
	m.browserCtx, m.browserCancel = browserCtx, browserCancel
	m.launched = true
	return nil
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// NewPage opens a tab in a fresh browser context so that cookies and
// storage are never shared between runs.
func (m *Manager) NewPage(ctx context.Context) (schemas.Page, error) {
	if m.isClosed() {
		return nil, errManagerClosed
	}
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}

	pageCtx, pageCancel := chromedp.NewContext(m.browserCtx, chromedp.WithNewBrowserContext())
	page := &Page{
		id:            uuid.NewString(),
		ctx:           pageCtx,
		cancel:        pageCancel,
		actionTimeout: m.cfg.ActionTimeout,
	}
	page.logger = m.logger.Named("page").With(zap.String("page_id", page.id))
	page.onClose = func() {
		m.mu.Lock()
		delete(m.pages, page.id)
		m.mu.Unlock()
	}

	// The first Run creates the target and, as above, uses pageCtx itself.
	var setup []chromedp.Action
	if m.cfg.ViewportWidth > 0 && m.cfg.ViewportHeight > 0 {
		setup = append(setup, chromedp.EmulateViewport(int64(m.cfg.ViewportWidth), int64(m.cfg.ViewportHeight)))
	}
	if err := chromedp.Run(pageCtx, setup...); err != nil {
		pageCancel()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if err := m.register(page); err != nil {
		return nil, err
	}
	m.logger.Debug("Page opened.", zap.String("page_id", page.id))
	return page, nil
}

// register tracks page for shutdown. A page opened while Close ran is
// closed instead of being tracked.
func (m *Manager) register(page *Page) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		page.cancel()
		return errManagerClosed
	}
	m.pages[page.id] = page
	m.mu.Unlock()
	return nil
}

// Close closes every open page and shuts the browser down.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	pages := make([]*Page, 0, len(m.pages))
	for _, p := range m.pages {
		pages = append(pages, p)
	}
	m.mu.Unlock()

	for _, p := range pages {
		_ = p.Close()
	}
	// Wait out a concurrent launch; later ones see closed and refuse.
	m.initMu.Lock()
	defer m.initMu.Unlock()
	if m.browserCancel != nil {
		m.browserCancel()
	}
	if m.allocCancel != nil {
		m.allocCancel()
	}
	m.logger.Info("Browser manager shut down.")
	return nil
}
