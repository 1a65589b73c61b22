package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/maltedev/wayfair-price-tracker/internal/browser"
	"github.com/maltedev/wayfair-price-tracker/internal/metrics"
	"github.com/maltedev/wayfair-price-tracker/internal/models"
	"github.com/maltedev/wayfair-price-tracker/internal/parser"
)

// Selectors locate a listing card and its fields on a search results page.
type Selectors struct {
	Card        string
	Title       string
	Price       string
	Brand       string
	Rating      string
	ReviewCount string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Card:        "div[class*='ProductCard']",
		Title:       "a[data-enzyme-id='product-title']",
		Price:       "div[class*='BasePrice']",
		Brand:       "span[class*='ProductCard-brand']",
		Rating:      "span[class*='AverageRating']",
		ReviewCount: "span[class*='RatingCount']",
	}
}

type Options struct {
	BaseURL            string
	NetworkIdleTimeout time.Duration
	NavigationRetries  int
	Selectors          Selectors
}

func DefaultOptions() Options {
	return Options{
		BaseURL:            "https://www.wayfair.com",
		NetworkIdleTimeout: 30 * time.Second,
		NavigationRetries:  1,
		Selectors:          DefaultSelectors(),
	}
}

type Extractor struct {
	page    browser.Page
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(page browser.Page, opts Options, logger *slog.Logger, m *metrics.Metrics) *Extractor {
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	return &Extractor{
		page:    page,
		opts:    opts,
		logger:  logger.With("component", "extractor"),
		metrics: m,
		now:     time.Now,
	}
}

// PageURL builds the keyword search URL for a 1-based page number.
func (e *Extractor) PageURL(keyword string, page int) string {
	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("curpage", strconv.Itoa(page))
	return e.opts.BaseURL + "/keyword.php?" + q.Encode()
}

// Extract walks search result pages 1..maxPages and returns one record per
// card that extracted cleanly. Failed cards are logged and skipped. A page
// that cannot be loaded stops the run; the records gathered so far are
// returned alongside the error.
func (e *Extractor) Extract(ctx context.Context, keyword string, maxPages int) ([]models.ProductRecord, error) {
	var records []models.ProductRecord

	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		pageRecords, err := e.extractPage(ctx, keyword, pageNum)
		if err != nil {
			return records, fmt.Errorf("failed to load page %d: %w", pageNum, err)
		}

		e.logger.Info("scraped page", "page", pageNum, "records", len(pageRecords))
		records = append(records, pageRecords...)
	}

	return records, nil
}

func (e *Extractor) extractPage(ctx context.Context, keyword string, pageNum int) ([]models.ProductRecord, error) {
	_, span := otel.Tracer("internal/extractor").Start(ctx, "extractor.page")
	defer span.End()

	pageURL := e.PageURL(keyword, pageNum)
	span.SetAttributes(attribute.String("url", pageURL), attribute.Int("page", pageNum))
	e.logger.Info("scraping page", "page", pageNum, "url", pageURL)

	if err := browser.NavigateWithRetry(ctx, e.page, pageURL, e.opts.NavigationRetries, e.logger); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	if err := e.page.WaitForNetworkIdle(e.opts.NetworkIdleTimeout); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed waiting for network idle: %w", err)
	}

	cards, err := e.page.QueryAll(e.opts.Selectors.Card)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to find cards: %w", err)
	}
	e.metrics.AddCardsSeen("extractor", len(cards))
	span.SetAttributes(attribute.Int("cards", len(cards)))

	records := make([]models.ProductRecord, 0, len(cards))
	for i, card := range cards {
		record, err := e.extractCard(card, keyword)
		if err != nil {
			e.metrics.IncCardFailed()
			e.logger.Warn("failed to parse product card", "page", pageNum, "card", i+1, "error", err)
			continue
		}
		records = append(records, *record)
	}

	return records, nil
}

// extractCard never lets a failure escape as a panic; an error means the
// card yields no record at all.
func (e *Extractor) extractCard(card browser.Element, keyword string) (record *models.ProductRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			record = nil
			err = fmt.Errorf("panic while extracting card: %v", r)
		}
	}()

	sel := e.opts.Selectors
	record = &models.ProductRecord{Category: keyword}

	titleEl, err := card.Query(sel.Title)
	if err != nil {
		return nil, err
	}
	if titleEl != nil {
		title, err := titleEl.InnerText()
		if err != nil {
			return nil, fmt.Errorf("failed to read title: %w", err)
		}
		record.Name = models.String(strings.TrimSpace(title))

		href, err := titleEl.Attribute("href")
		if err != nil {
			return nil, fmt.Errorf("failed to read link: %w", err)
		}
		if href != "" {
			record.URL = models.String(e.absoluteURL(href))
		}
	}

	priceText, err := optionalText(card, sel.Price)
	if err != nil {
		return nil, err
	}
	record.Price = parser.ExtractFloat(priceText)

	brandText, err := optionalText(card, sel.Brand)
	if err != nil {
		return nil, err
	}
	if brandText != nil {
		record.Brand = models.String(strings.TrimPrefix(*brandText, "by "))
	}

	ratingText, err := optionalText(card, sel.Rating)
	if err != nil {
		return nil, err
	}
	if ratingText != nil && parser.CountNumbers(*ratingText) > 1 {
		e.logger.Debug("rating text holds several numbers, using the first", "text", *ratingText)
	}
	record.Rating = parser.ExtractFloat(ratingText)

	reviewText, err := optionalText(card, sel.ReviewCount)
	if err != nil {
		return nil, err
	}
	record.ReviewCount = parser.ExtractInt(reviewText)

	record.ScrapedAt = e.now()
	return record, nil
}

func (e *Extractor) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return e.opts.BaseURL + href
}

// optionalText returns the trimmed text of the first match, or nil when the
// selector matches nothing.
func optionalText(card browser.Element, selector string) (*string, error) {
	el, err := card.Query(selector)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, nil
	}

	text, err := el.InnerText()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", selector, err)
	}
	text = strings.TrimSpace(text)
	return &text, nil
}
