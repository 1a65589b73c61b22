package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// ProductRecord is one listing card extracted from a catalog page.
// Fields whose DOM element was absent stay nil.
type ProductRecord struct {
	Name        *string   `json:"name"`
	Brand       *string   `json:"brand"`
	Price       *float64  `json:"price"`
	Rating      *float64  `json:"rating"`
	ReviewCount *int      `json:"review_count"`
	URL         *string   `json:"url"`
	Category    string    `json:"category"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// PriceSample is the outcome of refreshing one URL. Price holds the raw
// display text and is nil when every attempt failed.
type PriceSample struct {
	Timestamp    time.Time `json:"timestamp"`
	URL          string    `json:"url"`
	Price        *string   `json:"price"`
	TimeSpentSec float64   `json:"time_spent_sec"`
}

// Succeeded reports whether a price was captured.
func (s PriceSample) Succeeded() bool {
	return s.Price != nil
}

type RunSummary struct {
	RunID        string    `json:"run_id"`
	Timestamp    time.Time `json:"timestamp"`
	TotalURLs    int       `json:"total_urls"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
	SuccessRate  float64   `json:"success_rate"`
	AvgTimeSec   float64   `json:"avg_time_sec"`
}

// NewRunSummary derives the aggregate counters for a finished run.
// An empty run reports a zero rate and average.
func NewRunSummary(total, success int, elapsed time.Duration) RunSummary {
	s := RunSummary{
		RunID:        uuid.NewString(),
		Timestamp:    time.Now(),
		TotalURLs:    total,
		SuccessCount: success,
		FailureCount: total - success,
	}

	if total > 0 {
		s.SuccessRate = float64(success) / float64(total) * 100
		s.AvgTimeSec = elapsed.Seconds() / float64(total)
	}

	return s
}

// RoundSeconds rounds a duration to seconds with two decimals.
func RoundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// Float returns a pointer to f.
func Float(f float64) *float64 {
	return &f
}

// Int returns a pointer to i.
func Int(i int) *int {
	return &i
}
