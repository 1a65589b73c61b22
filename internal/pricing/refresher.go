package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/maltedev/wayfair-price-tracker/internal/metrics"
	"github.com/maltedev/wayfair-price-tracker/internal/models"
	"github.com/maltedev/wayfair-price-tracker/internal/parser"
	"github.com/maltedev/wayfair-price-tracker/internal/ratelimit"
)

// ErrNoPrice means the proxy answered but the page carried no price element.
var ErrNoPrice = errors.New("price element not found")

// Renderer fetches the fully rendered HTML of a URL.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

type Options struct {
	MaxRetries int
	Backoff    ratelimit.Waiter
}

func DefaultOptions() Options {
	return Options{
		MaxRetries: 3,
		Backoff:    ratelimit.NewJitter(2*time.Second, 5*time.Second),
	}
}

type Result struct {
	Samples []models.PriceSample
	Summary models.RunSummary
}

type Refresher struct {
	renderer Renderer
	opts     Options
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewRefresher(renderer Renderer, opts Options, logger *slog.Logger, m *metrics.Metrics) *Refresher {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.Backoff == nil {
		opts.Backoff = DefaultOptions().Backoff
	}
	return &Refresher{
		renderer: renderer,
		opts:     opts,
		logger:   logger.With("component", "pricing"),
		metrics:  m,
		now:      time.Now,
	}
}

// Run refreshes every URL in order and always yields one sample per URL.
// Only cancellation of ctx stops it early.
func (r *Refresher) Run(ctx context.Context, urls []string) (*Result, error) {
	result := &Result{Samples: make([]models.PriceSample, 0, len(urls))}
	runStart := r.now()
	success := 0

	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		r.logger.Info("processing url", "index", i+1, "total", len(urls), "url", u)
		sample := r.refresh(ctx, u)
		result.Samples = append(result.Samples, sample)

		if sample.Succeeded() {
			success++
			r.logger.Info("price captured", "url", u, "price", *sample.Price, "time_spent_sec", sample.TimeSpentSec)
		} else {
			r.logger.Warn("no price after retries", "url", u, "attempts", r.opts.MaxRetries)
		}
	}

	result.Summary = models.NewRunSummary(len(urls), success, r.now().Sub(runStart))
	r.metrics.SetSuccessRate(result.Summary.SuccessRate)

	return result, nil
}

// refresh makes up to MaxRetries attempts for url. The backoff runs only
// between attempts, so TimeSpentSec never includes a wait after the last one.
func (r *Refresher) refresh(ctx context.Context, url string) models.PriceSample {
	ctx, span := otel.Tracer("internal/pricing").Start(ctx, "pricing.refresh")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	start := r.now()
	var price *string

	for attempt := 1; attempt <= r.opts.MaxRetries; attempt++ {
		p, err := r.attempt(ctx, url)
		if err == nil {
			price = p
			span.SetAttributes(attribute.Int("attempts", attempt))
			break
		}

		r.logger.Error("attempt failed", "url", url, "attempt", attempt, "max_retries", r.opts.MaxRetries, "error", err)
		if attempt == r.opts.MaxRetries {
			span.SetStatus(codes.Error, err.Error())
			break
		}
		if err := r.opts.Backoff.Wait(ctx); err != nil {
			span.SetStatus(codes.Error, err.Error())
			break
		}
	}

	elapsed := r.now().Sub(start)
	r.metrics.ObserveURL(price != nil, elapsed)

	return models.PriceSample{
		Timestamp:    start,
		URL:          url,
		Price:        price,
		TimeSpentSec: models.RoundSeconds(elapsed),
	}
}

func (r *Refresher) attempt(ctx context.Context, url string) (*string, error) {
	html, err := r.renderer.Render(ctx, url)
	if err != nil {
		r.metrics.IncAttempt("error")
		return nil, err
	}

	price, err := parser.PriceDisplay(html)
	if err != nil {
		r.metrics.IncAttempt("error")
		return nil, fmt.Errorf("failed to read rendered page: %w", err)
	}
	if price == nil {
		r.metrics.IncAttempt("no_price")
		return nil, ErrNoPrice
	}

	r.metrics.IncAttempt("success")
	return price, nil
}
