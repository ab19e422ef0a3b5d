package checker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"appointment-checker/config"
	"appointment-checker/models"
	"appointment-checker/utils"
)

// ErrSessionLost signals that the browser session is gone or unresponsive.
// It is fatal for the run: the aggregator must stop and mark the run
// degraded rather than let dead-browser failures read as "no appointments".
var ErrSessionLost = errors.New("browser session lost")

type responseMeta struct {
	requestID  network.RequestID
	url        string
	statusCode int
	headers    map[string]string
}

// Session is the exclusive handle on one browser session. All location
// checks of a run share it, strictly sequentially — its navigation state has
// no isolation, so concurrent use would corrupt the flow. A parallel
// extension means N independent Sessions, never a shared one.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	logger *utils.Logger
	slowMo time.Duration

	// calendar responses matched by the network listener; drained at the
	// start of every capture so nothing bleeds across locations
	responses chan responseMeta
}

// NewSession launches a browser and arms the calendar-response listener.
func NewSession(parent context.Context, cfg *config.Config, logger *utils.Logger) (*Session, error) {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[session] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)

	// Suppress chromedp log noise
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	s := &Session{
		ctx:       ctx,
		cfg:       cfg,
		logger:    logger,
		slowMo:    time.Duration(cfg.SlowMoMs) * time.Millisecond,
		responses: make(chan responseMeta, 8),
		cancel: func() {
			cancelCtx()
			cancelAlloc()
		},
	}

	if err := chromedp.Run(ctx, network.Enable()); err != nil {
		s.cancel()
		return nil, fmt.Errorf("session: enable network: %w", err)
	}
	s.listen()

	return s, nil
}

// listen forwards completed calendar responses into the responses channel.
// The body is fetched later, outside the event callback, once the response
// has finished loading.
func (s *Session) listen() {
	var mu sync.Mutex
	pending := make(map[network.RequestID]responseMeta)

	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *network.EventResponseReceived:
			if !strings.Contains(ev.Response.URL, calendarEndpointMarker) {
				return
			}
			headers := make(map[string]string, len(ev.Response.Headers))
			for k, v := range ev.Response.Headers {
				headers[k] = fmt.Sprint(v)
			}
			mu.Lock()
			pending[ev.RequestID] = responseMeta{
				requestID:  ev.RequestID,
				url:        ev.Response.URL,
				statusCode: int(ev.Response.Status),
				headers:    headers,
			}
			mu.Unlock()
		case *network.EventLoadingFinished:
			mu.Lock()
			meta, ok := pending[ev.RequestID]
			delete(pending, ev.RequestID)
			mu.Unlock()
			if !ok {
				return
			}
			select {
			case s.responses <- meta:
			default:
				s.logger.Warn("[session] Dropping calendar response, capture buffer full: %s", meta.url)
			}
		}
	})
}

// CaptureResponse clears any stale capture, runs trigger (typically the
// location click) and waits up to timeout for a matching calendar response.
// The captured response is returned as an explicit value; a nil response
// with a nil error means the window elapsed without a match. A dead session
// returns ErrSessionLost.
func (s *Session) CaptureResponse(timeout time.Duration, trigger func() error) (*models.CapturedResponse, error) {
	for {
		select {
		case stale := <-s.responses:
			s.logger.Debug("[session] Discarding stale calendar response: %s", stale.url)
			continue
		default:
		}
		break
	}

	if err := trigger(); err != nil {
		return nil, err
	}

	select {
	case meta := <-s.responses:
		var body []byte
		err := s.Run(chromedp.ActionFunc(func(ctx context.Context) error {
			b, err := network.GetResponseBody(meta.requestID).Do(ctx)
			body = b
			return err
		}))
		if err != nil {
			if errors.Is(err, ErrSessionLost) {
				return nil, err
			}
			// Body already evicted from the browser cache; treat like a
			// missed capture and let the fallback heuristic take over.
			s.logger.Warn("[session] Could not fetch captured response body: %v", err)
			return nil, nil
		}
		return &models.CapturedResponse{
			URL:        meta.url,
			StatusCode: meta.statusCode,
			Body:       string(body),
			Headers:    meta.headers,
			CapturedAt: time.Now(),
		}, nil
	case <-time.After(timeout):
		return nil, nil
	case <-s.ctx.Done():
		return nil, fmt.Errorf("awaiting calendar response: %w", ErrSessionLost)
	}
}

// Run executes chromedp actions on the session, mapping dead-browser
// failures to ErrSessionLost.
func (s *Session) Run(actions ...chromedp.Action) error {
	err := chromedp.Run(s.ctx, actions...)
	if err == nil {
		if s.slowMo > 0 {
			time.Sleep(s.slowMo)
		}
		return nil
	}
	if s.ctx.Err() != nil ||
		strings.Contains(err.Error(), "websocket") ||
		strings.Contains(err.Error(), "context canceled") {
		return fmt.Errorf("%v: %w", err, ErrSessionLost)
	}
	return err
}

// Navigate loads url and waits for the document to settle, bounded by the
// configured navigation timeout.
func (s *Session) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(s.ctx, time.Duration(s.cfg.NavTimeoutMs)*time.Millisecond)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
	if err != nil && s.ctx.Err() != nil {
		return fmt.Errorf("navigate %s: %w", url, ErrSessionLost)
	}
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// GrantGeolocation overrides the browser position with the configured
// coordinates and pre-grants the geolocation permission for the target.
func (s *Session) GrantGeolocation() error {
	return s.Run(
		browser.GrantPermissions([]browser.PermissionType{browser.PermissionTypeGeolocation}),
		emulation.SetGeolocationOverride().
			WithLatitude(s.cfg.GeoLatitude).
			WithLongitude(s.cfg.GeoLongitude).
			WithAccuracy(50),
	)
}

// WaitVisible blocks until selector is visible, bounded by timeout.
func (s *Session) WaitVisible(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	err := chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err != nil && s.ctx.Err() != nil {
		return fmt.Errorf("wait %s: %w", selector, ErrSessionLost)
	}
	return err
}

// Click clicks the first element matching selector.
func (s *Session) Click(selector string) error {
	return s.Run(chromedp.Click(selector, chromedp.ByQuery))
}

// ClickNth clicks the i-th element matching selector in the current render.
func (s *Session) ClickNth(selector string, i int) error {
	js := fmt.Sprintf(`
		(function() {
			var items = document.querySelectorAll(%q);
			if (items.length <= %d) return false;
			items[%d].click();
			return true;
		})()
	`, selector, i, i)

	var clicked bool
	if err := s.Run(chromedp.Evaluate(js, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("click: no element %d for selector %q", i, selector)
	}
	return nil
}

// Evaluate runs js in the page and decodes the result into out.
func (s *Session) Evaluate(js string, out interface{}) error {
	return s.Run(chromedp.Evaluate(js, out))
}

// GoBack navigates back one history entry.
func (s *Session) GoBack() error {
	return s.Run(chromedp.NavigateBack())
}

// Screenshot writes a full-page screenshot to path, creating the directory
// if needed.
func (s *Session) Screenshot(path string) error {
	var buf []byte
	if err := s.Run(chromedp.FullScreenshot(&buf, 90)); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("screenshot dir: %w", err)
	}
	return os.WriteFile(path, buf, 0o644)
}

// Context exposes the session's lifetime context, for callers that need to
// tie their own waits to the browser's lifetime.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close tears the browser session down.
func (s *Session) Close() {
	s.cancel()
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
