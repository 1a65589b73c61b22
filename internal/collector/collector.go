// Package collector harvests lazily loaded listing cards by scrolling a
// rendered page until the card count stops growing.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/wayfair-price-tracker/internal/browser"
	"github.com/maltedev/wayfair-price-tracker/internal/metrics"
	"github.com/maltedev/wayfair-price-tracker/internal/ratelimit"
)

// ErrNavigationTimeout means the root container never appeared.
var ErrNavigationTimeout = errors.New("navigation timeout: container not found")

const unknownTitle = "Unknown Title"

type Options struct {
	ContainerSelector string
	CardSelector      string
	ContainerTimeout  time.Duration
	MaxSteps          int
	WheelDelta        float64
	ScrollDelta       float64
	SettleDelay       time.Duration
}

func DefaultOptions() Options {
	return Options{
		ContainerSelector: "section._1hwhogy1",
		CardSelector:      `div[data-node-id="SponsoredListingCollectionItem"]`,
		ContainerTimeout:  15 * time.Second,
		MaxSteps:          25,
		WheelDelta:        600,
		ScrollDelta:       800,
		SettleDelay:       2500 * time.Millisecond,
	}
}

type Result struct {
	Cards []browser.Element
	Count int
	Steps int
}

type Collector struct {
	page    browser.Page
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics
	sleep   func(ctx context.Context, d time.Duration) error
}

func New(page browser.Page, opts Options, logger *slog.Logger, m *metrics.Metrics) *Collector {
	if opts.MaxSteps < 1 {
		opts.MaxSteps = 1
	}
	return &Collector{
		page:    page,
		opts:    opts,
		logger:  logger.With("component", "collector"),
		metrics: m,
		sleep:   ratelimit.Sleep,
	}
}

// Collect opens url and scrolls until no new cards load or the step budget
// runs out. Count is the card count at the step where convergence was declared.
func (c *Collector) Collect(ctx context.Context, url string) (*Result, error) {
	c.logger.Info("collecting listing cards", "url", url)

	if err := c.page.Navigate(url); err != nil {
		return nil, err
	}

	if _, err := c.page.WaitForSelector(c.opts.ContainerSelector, c.opts.ContainerTimeout); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNavigationTimeout, c.opts.ContainerSelector, err)
	}

	var cards []browser.Element
	count, steps, err := Converge(c.opts.MaxSteps, func(step int) (int, error) {
		found, err := c.scrollStep(ctx)
		if err != nil {
			return 0, err
		}
		// Keep the handles from the largest observation so len(cards) == count.
		if len(found) >= len(cards) {
			cards = found
		}

		c.metrics.IncScrollStep()
		c.logger.Info("scroll step", "step", step, "cards", len(found))
		return len(found), nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("scroll converged", "cards", count, "steps", steps)
	c.metrics.AddCardsSeen("collector", count)

	return &Result{Cards: cards, Count: count, Steps: steps}, nil
}

func (c *Collector) scrollStep(ctx context.Context) ([]browser.Element, error) {
	if err := c.page.Wheel(0, c.opts.WheelDelta); err != nil {
		return nil, fmt.Errorf("failed to scroll: %w", err)
	}
	if err := c.page.Evaluate(fmt.Sprintf("window.scrollBy(0, %g)", c.opts.ScrollDelta)); err != nil {
		return nil, fmt.Errorf("failed to scroll: %w", err)
	}

	if err := c.sleep(ctx, c.opts.SettleDelay); err != nil {
		return nil, err
	}

	container, err := c.page.Query(c.opts.ContainerSelector)
	if err != nil {
		return nil, err
	}
	if container == nil {
		return nil, fmt.Errorf("%w: %s disappeared", ErrNavigationTimeout, c.opts.ContainerSelector)
	}

	return container.QueryAll(c.opts.CardSelector)
}

// Converge calls observe for steps 1..maxSteps and stops at the first step
// whose count does not exceed the best count so far. It returns that best
// count and the number of steps taken.
func Converge(maxSteps int, observe func(step int) (int, error)) (count, steps int, err error) {
	for step := 1; step <= maxSteps; step++ {
		n, err := observe(step)
		if err != nil {
			return count, step, err
		}

		steps = step
		if n <= count {
			break
		}
		count = n
	}
	return count, steps, nil
}

// Titles reads each card's heading, using a placeholder for cards without one.
func Titles(cards []browser.Element, selector string) []string {
	titles := make([]string, 0, len(cards))
	for _, card := range cards {
		titles = append(titles, cardTitle(card, selector))
	}
	return titles
}

func cardTitle(card browser.Element, selector string) string {
	heading, err := card.Query(selector)
	if err != nil || heading == nil {
		return unknownTitle
	}

	text, err := heading.InnerText()
	if err != nil {
		return unknownTitle
	}
	return strings.TrimSpace(text)
}
