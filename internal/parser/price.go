package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PriceDisplaySelector matches the price element on a rendered product page.
const PriceDisplaySelector = `span[data-test-id="PriceDisplay"]`

// PriceDisplay returns the trimmed text of the first price element in a
// rendered product page, or nil when the page carries none.
func PriceDisplay(html string) (*string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	sel := doc.Find(PriceDisplaySelector).First()
	if sel.Length() == 0 {
		return nil, nil
	}

	text := strings.TrimSpace(sel.Text())
	return &text, nil
}
