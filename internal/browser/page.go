package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/maltedev/wayfair-price-tracker/internal/ratelimit"
)

// ErrTimeout is returned when a bounded wait on the page expires.
var ErrTimeout = errors.New("browser wait timed out")

// Element is a handle to a node in the rendered page. It is only valid
// while the page that produced it stays open.
type Element interface {
	// Query returns the first matching descendant, or nil when none matches.
	Query(selector string) (Element, error)
	QueryAll(selector string) ([]Element, error)
	InnerText() (string, error)
	// Attribute returns the attribute value, or "" when it is not set.
	Attribute(name string) (string, error)
}

// Page is the browser capability the pipelines depend on.
type Page interface {
	Navigate(url string) error
	WaitForSelector(selector string, timeout time.Duration) (Element, error)
	WaitForNetworkIdle(timeout time.Duration) error
	Query(selector string) (Element, error)
	QueryAll(selector string) ([]Element, error)
	Wheel(dx, dy float64) error
	Evaluate(script string) error
	Close() error
}

type playwrightPage struct {
	page    playwright.Page
	timeout time.Duration
	logger  *slog.Logger
}

func (p *playwrightPage) Navigate(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(p.timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (p *playwrightPage) WaitForSelector(selector string, timeout time.Duration) (Element, error) {
	handle, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, wrapWaitError(err, selector)
	}
	if handle == nil {
		return nil, fmt.Errorf("%w: %s", ErrTimeout, selector)
	}
	return &playwrightElement{handle: handle}, nil
}

func (p *playwrightPage) WaitForNetworkIdle(timeout time.Duration) error {
	err := p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return wrapWaitError(err, "networkidle")
	}
	return nil
}

func (p *playwrightPage) Query(selector string) (Element, error) {
	handle, err := p.page.QuerySelector(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	if handle == nil {
		return nil, nil
	}
	return &playwrightElement{handle: handle}, nil
}

func (p *playwrightPage) QueryAll(selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	return wrapHandles(handles), nil
}

func (p *playwrightPage) Wheel(dx, dy float64) error {
	return p.page.Mouse().Wheel(dx, dy)
}

func (p *playwrightPage) Evaluate(script string) error {
	if _, err := p.page.Evaluate(script); err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}
	return nil
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

type playwrightElement struct {
	handle playwright.ElementHandle
}

func (e *playwrightElement) Query(selector string) (Element, error) {
	handle, err := e.handle.QuerySelector(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	if handle == nil {
		return nil, nil
	}
	return &playwrightElement{handle: handle}, nil
}

func (e *playwrightElement) QueryAll(selector string) ([]Element, error) {
	handles, err := e.handle.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	return wrapHandles(handles), nil
}

func (e *playwrightElement) InnerText() (string, error) {
	return e.handle.InnerText()
}

func (e *playwrightElement) Attribute(name string) (string, error) {
	return e.handle.GetAttribute(name)
}

func wrapHandles(handles []playwright.ElementHandle) []Element {
	elements := make([]Element, 0, len(handles))
	for _, h := range handles {
		elements = append(elements, &playwrightElement{handle: h})
	}
	return elements
}

func wrapWaitError(err error, target string) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %s", ErrTimeout, target)
	}
	return fmt.Errorf("failed waiting for %s: %w", target, err)
}

// NavigateWithRetry retries Navigate with a linearly growing pause. The
// pause ends early with ctx.Err() when ctx is cancelled.
func NavigateWithRetry(ctx context.Context, page Page, url string, maxRetries int, logger *slog.Logger) error {
	return navigateWithRetry(ctx, page, url, maxRetries, logger, ratelimit.Sleep)
}

func navigateWithRetry(ctx context.Context, page Page, url string, maxRetries int, logger *slog.Logger, sleep func(context.Context, time.Duration) error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			logger.Info("retrying navigation", "attempt", i+1, "url", url)
			if err := sleep(ctx, time.Duration(i)*time.Second); err != nil {
				return err
			}
		}

		err := page.Navigate(url)
		if err == nil {
			return nil
		}

		lastErr = err
		logger.Error("navigation failed", "error", err, "attempt", i+1)
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
