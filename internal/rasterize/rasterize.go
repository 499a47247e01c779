// Package rasterize converts a rendered letter's HTML into a PDF using a
// headless Chrome instance.
package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ledongthuc/pdf"
)

// A4 paper in inches, with letter margins matching the page stylesheet.
const (
	paperWidthIn  = 8.27
	paperHeightIn = 11.69

	marginTopIn    = 0.59 // 15mm
	marginRightIn  = 0.59
	marginBottomIn = 1.18 // 30mm, leaves room for the fixed footer
	marginLeftIn   = 0.59
)

// Rasterizer runs a fresh headless browser per document. Letter volume is low
// enough that keeping a warm browser is not worth the session management.
type Rasterizer struct {
	// ChromePath overrides the browser binary; empty means chromedp's default
	// lookup.
	ChromePath string
	// Timeout bounds one full print run, navigation included.
	Timeout time.Duration
}

// Render prints the HTML document to PDF bytes.
func (r *Rasterizer) Render(ctx context.Context, html string) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.NoSandbox)
	if r.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.ChromePath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	tracker := newIdleTracker()
	chromedp.ListenTarget(browserCtx, tracker.handle)

	var pdfBytes []byte
	err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		// Embedded images and web fonts must land before capture.
		chromedp.ActionFunc(func(ctx context.Context) error {
			return tracker.wait(ctx, networkQuietWindow)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidthIn).
				WithPaperHeight(paperHeightIn).
				WithMarginTop(marginTopIn).
				WithMarginRight(marginRightIn).
				WithMarginBottom(marginBottomIn).
				WithMarginLeft(marginLeftIn).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("print to pdf: %w", err)
			}
			pdfBytes = buf
			return nil
		}),
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("rasterize timed out after %s: %w", timeout, err)
		}
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	return pdfBytes, nil
}

// networkQuietWindow is how long the network must stay silent after the load
// event before the page counts as idle.
const networkQuietWindow = 500 * time.Millisecond

// idleTracker follows page load and network events so the capture waits for
// the document to finish loading, network idle included.
type idleTracker struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	loaded   bool
	change   chan struct{}
}

func newIdleTracker() *idleTracker {
	return &idleTracker{
		inflight: make(map[network.RequestID]struct{}),
		change:   make(chan struct{}, 1),
	}
}

func (t *idleTracker) handle(ev interface{}) {
	t.mu.Lock()
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.inflight[e.RequestID] = struct{}{}
	case *network.EventLoadingFinished:
		delete(t.inflight, e.RequestID)
	case *network.EventLoadingFailed:
		delete(t.inflight, e.RequestID)
	case *page.EventLoadEventFired:
		t.loaded = true
	default:
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	select {
	case t.change <- struct{}{}:
	default:
	}
}

func (t *idleTracker) idle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loaded && len(t.inflight) == 0
}

// wait blocks until the load event has fired and no request has been in
// flight for quiet, or until ctx expires.
func (t *idleTracker) wait(ctx context.Context, quiet time.Duration) error {
	timer := time.NewTimer(quiet)
	defer timer.Stop()
	for {
		if !t.idle() {
			select {
			case <-ctx.Done():
				return fmt.Errorf("wait for page load: %w", ctx.Err())
			case <-t.change:
			}
			continue
		}
		timer.Reset(quiet)
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for network idle: %w", ctx.Err())
		case <-t.change:
			// Activity resumed; re-check from the top.
		case <-timer.C:
			if t.idle() {
				return nil
			}
		}
	}
}

// ValidatePDF parses the produced bytes and rejects empty or truncated output
// before anything is published.
func ValidatePDF(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty pdf output")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("parse pdf: %w", err)
	}
	if reader.NumPage() < 1 {
		return fmt.Errorf("pdf has no pages")
	}
	return nil
}
