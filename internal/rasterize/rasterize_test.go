package rasterize

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
)

func TestIdleTrackerWaitsForLoadEvent(t *testing.T) {
	tracker := newIdleTracker()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- tracker.wait(ctx, 10*time.Millisecond) }()

	select {
	case err := <-done:
		t.Fatalf("wait returned before load event: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	tracker.handle(&page.EventLoadEventFired{})
	if err := <-done; err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestIdleTrackerWaitsForInflightRequests(t *testing.T) {
	tracker := newIdleTracker()
	tracker.handle(&page.EventLoadEventFired{})
	tracker.handle(&network.EventRequestWillBeSent{RequestID: network.RequestID("r1")})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- tracker.wait(ctx, 10*time.Millisecond) }()

	select {
	case err := <-done:
		t.Fatalf("wait returned with a request in flight: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	tracker.handle(&network.EventLoadingFinished{RequestID: network.RequestID("r1")})
	if err := <-done; err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestIdleTrackerFailedRequestStillSettles(t *testing.T) {
	tracker := newIdleTracker()
	tracker.handle(&page.EventLoadEventFired{})
	tracker.handle(&network.EventRequestWillBeSent{RequestID: network.RequestID("r1")})
	tracker.handle(&network.EventLoadingFailed{RequestID: network.RequestID("r1")})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := tracker.wait(ctx, 10*time.Millisecond); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestIdleTrackerHonorsContextDeadline(t *testing.T) {
	tracker := newIdleTracker()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := tracker.wait(ctx, 10*time.Millisecond); err == nil {
		t.Fatal("expected deadline error while load never fires")
	}
}

func TestValidatePDFRejectsEmptyOutput(t *testing.T) {
	if err := ValidatePDF(nil); err == nil {
		t.Fatal("expected error for empty output")
	}
}

func TestValidatePDFRejectsGarbage(t *testing.T) {
	if err := ValidatePDF([]byte("<html>not a pdf</html>")); err == nil {
		t.Fatal("expected error for non-pdf bytes")
	}
}

func TestValidatePDFRejectsTruncatedHeader(t *testing.T) {
	if err := ValidatePDF([]byte("%PDF-1.7")); err == nil {
		t.Fatal("expected error for truncated pdf")
	}
}
