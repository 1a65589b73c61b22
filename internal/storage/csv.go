// Package storage persists pipeline output as CSV tables and the
// append-only run log.
package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/maltedev/wayfair-price-tracker/internal/models"
)

const timestampLayout = "2006-01-02 15:04:05"

var (
	productHeader = []string{"name", "brand", "price", "rating", "review_count", "url", "category", "scraped_at"}
	sampleHeader  = []string{"timestamp", "url", "price", "time_spent_sec"}
	listingHeader = []string{"position", "title"}
)

// ProductsFilename names an extractor output table, e.g. wayfair_desk_20261019.csv.
func ProductsFilename(keyword string, t time.Time) string {
	slug := strings.Join(strings.Fields(strings.ToLower(keyword)), "_")
	return fmt.Sprintf("wayfair_%s_%s.csv", slug, t.Format("20060102"))
}

// PriceTrackingFilename names a price refresh output table.
func PriceTrackingFilename(t time.Time) string {
	return fmt.Sprintf("wayfair_price_tracking_%s.csv", t.Format("20060102_1504"))
}

func ListingsFilename(t time.Time) string {
	return fmt.Sprintf("wayfair_listings_%s.csv", t.Format("20060102_1504"))
}

func WriteProducts(path string, records []models.ProductRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			optString(r.Name),
			optString(r.Brand),
			optFloat(r.Price),
			optFloat(r.Rating),
			optInt(r.ReviewCount),
			optString(r.URL),
			r.Category,
			r.ScrapedAt.Format(timestampLayout),
		})
	}
	return writeTable(path, productHeader, rows)
}

func WritePriceSamples(path string, samples []models.PriceSample) error {
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []string{
			s.Timestamp.Format(timestampLayout),
			s.URL,
			optString(s.Price),
			strconv.FormatFloat(s.TimeSpentSec, 'f', 2, 64),
		})
	}
	return writeTable(path, sampleHeader, rows)
}

// WriteListings stores card titles in the order they were collected.
func WriteListings(path string, titles []string) error {
	rows := make([][]string, 0, len(titles))
	for i, title := range titles {
		rows = append(rows, []string{strconv.Itoa(i + 1), title})
	}
	return writeTable(path, listingHeader, rows)
}

// writeTable writes to a temp file first and renames it into place so a
// crash never leaves a half-written table behind.
func writeTable(path string, header []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tmpFile := path + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmpFile, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, path)
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func optInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
