package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"tmsearch/config"
)

// Session owns one browser process, one browsing context and one page. It is
// created per search and must be closed on every exit path; Close is safe to
// call any number of times, including on a zero value.
type Session struct {
	logger      *zap.Logger
	ctx         context.Context
	taskCancel  context.CancelFunc
	allocCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// Opener builds fresh sessions from a fixed configuration.
type Opener struct {
	cfg    *config.Config
	logger *zap.Logger
}

func NewOpener(cfg *config.Config, logger *zap.Logger) *Opener {
	return &Opener{cfg: cfg, logger: logger}
}

func (o *Opener) Open(ctx context.Context) (*Session, error) {
	return NewSession(ctx, o.cfg, o.logger)
}

func NewSession(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.UserAgent(cfg.UserAgent),

		// Stealth options
		chromedp.Flag("accept-language", "en-US,en;q=0.9"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-extensions", ""),
	)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.ProxyURL))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		logger:      logger,
		ctx:         taskCtx,
		taskCancel:  taskCancel,
		allocCancel: allocCancel,
	}

	// Starts the browser, opens the page and pins the viewport.
	err := chromedp.Run(taskCtx,
		emulation.SetDeviceMetricsOverride(int64(cfg.ViewportWidth), int64(cfg.ViewportHeight), 1, false),
		chromedp.Evaluate(`
			Object.defineProperty(navigator, 'webdriver', {
				get: () => undefined,
			});
			window.chrome = window.chrome || { runtime: {} };
		`, nil),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}

	return s, nil
}

// Run executes chromedp actions against the session page, bounded by timeout
// when timeout > 0.
func (s *Session) Run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx := s.ctx
	if ctx == nil {
		return fmt.Errorf("session not open")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return chromedp.Run(ctx, actions...)
}

// Evaluate runs a script in the page and decodes the result into out.
func (s *Session) Evaluate(js string, out any, timeout time.Duration) error {
	return s.Run(timeout, chromedp.Evaluate(js, out))
}

// OuterHTML snapshots the rendered document.
func (s *Session) OuterHTML(timeout time.Duration) (string, error) {
	var html string
	err := s.Run(timeout, chromedp.OuterHTML("html", &html))
	return html, err
}

// PageState reports current URL, title and DOM size for failure diagnostics.
func (s *Session) PageState() (string, string, int) {
	var currentURL, title, domHTML string
	s.Run(10*time.Second,
		chromedp.Location(&currentURL),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &domHTML),
	)
	return currentURL, title, len(domHTML)
}

// Screenshot writes a full-page capture into dir.
func (s *Session) Screenshot(dir, name string) error {
	var buf []byte
	if err := s.Run(15*time.Second, chromedp.FullScreenshot(&buf, 80)); err != nil {
		return fmt.Errorf("screenshot capture failed: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	path := filepath.Join(dir, name+".png")
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("screenshot saved", zap.String("path", path))
	}
	return nil
}

// Close tears the page, context and browser process down. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.taskCancel != nil {
		s.taskCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	if s.logger != nil {
		s.logger.Debug("browser session closed")
	}
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
