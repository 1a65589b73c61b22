package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/wayfair-price-tracker/internal/models"
)

var testTime = time.Date(2026, 10, 19, 14, 5, 9, 0, time.UTC)

func readTable(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "wayfair_desk_20261019.csv", ProductsFilename("desk", testTime))
	assert.Equal(t, "wayfair_standing_desk_20261019.csv", ProductsFilename(" Standing  Desk ", testTime))
	assert.Equal(t, "wayfair_price_tracking_20261019_1405.csv", PriceTrackingFilename(testTime))
	assert.Equal(t, "wayfair_listings_20261019_1405.csv", ListingsFilename(testTime))
}

func TestWriteProducts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "products.csv")

	err := WriteProducts(path, []models.ProductRecord{
		{
			Name:        models.String("Lenita Desk, Walnut"),
			Brand:       models.String("Wade Logan"),
			Price:       models.Float(1299.99),
			Rating:      models.Float(4.5),
			ReviewCount: models.Int(1024),
			URL:         models.String("https://www.wayfair.com/p/lenita.html"),
			Category:    "desk",
			ScrapedAt:   testTime,
		},
		{Category: "desk", ScrapedAt: testTime},
	})
	require.NoError(t, err)

	rows := readTable(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, productHeader, rows[0])
	assert.Equal(t, []string{"Lenita Desk, Walnut", "Wade Logan", "1299.99", "4.5", "1024", "https://www.wayfair.com/p/lenita.html", "desk", "2026-10-19 14:05:09"}, rows[1])
	assert.Equal(t, []string{"", "", "", "", "", "", "desk", "2026-10-19 14:05:09"}, rows[2])

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not survive")
}

func TestWritePriceSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), PriceTrackingFilename(testTime))

	err := WritePriceSamples(path, []models.PriceSample{
		{Timestamp: testTime, URL: "https://www.wayfair.com/p/a", Price: models.String("$249.99"), TimeSpentSec: 3.4},
		{Timestamp: testTime, URL: "https://www.wayfair.com/p/b", TimeSpentSec: 15.127},
	})
	require.NoError(t, err)

	rows := readTable(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"timestamp", "url", "price", "time_spent_sec"}, rows[0])
	assert.Equal(t, []string{"2026-10-19 14:05:09", "https://www.wayfair.com/p/a", "$249.99", "3.40"}, rows[1])
	assert.Equal(t, []string{"2026-10-19 14:05:09", "https://www.wayfair.com/p/b", "", "15.13"}, rows[2])
}

func TestWriteListings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")

	require.NoError(t, WriteListings(path, []string{"Desk A", "Unknown Title"}))

	rows := readTable(t, path)
	assert.Equal(t, [][]string{{"position", "title"}, {"1", "Desk A"}, {"2", "Unknown Title"}}, rows)
}

func TestAppendRunSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wayfair_scrape_log.txt")
	summary := models.RunSummary{
		Timestamp:    testTime,
		TotalURLs:    2,
		SuccessCount: 1,
		FailureCount: 1,
		SuccessRate:  50,
		AvgTimeSec:   7.456,
	}

	require.NoError(t, AppendRunSummary(path, summary))
	require.NoError(t, AppendRunSummary(path, summary))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	block := "\n[2026-10-19 14:05:09] New Run\n" +
		"Total URLs: 2\n" +
		"Successful fetches: 1\n" +
		"Failed fetches: 1\n" +
		"Success rate: 50.00%\n" +
		"Average time per URL: 7.46 seconds\n" +
		strings.Repeat("=", 40) + "\n"
	assert.Equal(t, block+block, string(data))
}

func TestReadURLs(t *testing.T) {
	tests := []struct {
		name    string
		content string
		limit   int
		want    []string
		wantErr error
	}{
		{
			name:    "limits rows",
			content: "name,url\na,https://x/1\nb,https://x/2\nc,https://x/3\n",
			limit:   2,
			want:    []string{"https://x/1", "https://x/2"},
		},
		{
			name:    "no limit",
			content: "url\nhttps://x/1\nhttps://x/2\n",
			limit:   0,
			want:    []string{"https://x/1", "https://x/2"},
		},
		{
			name:    "blank cells skipped",
			content: "url,price\nhttps://x/1,1\n,2\nhttps://x/3,3\n",
			limit:   10,
			want:    []string{"https://x/1", "https://x/3"},
		},
		{
			name:    "blank cells do not count toward the limit",
			content: "url\nhttps://x/1\n\"\"\n  \nhttps://x/2\nhttps://x/3\n",
			limit:   2,
			want:    []string{"https://x/1", "https://x/2"},
		},
		{
			name:    "header with BOM",
			content: "\ufeffurl\nhttps://x/1\n",
			limit:   10,
			want:    []string{"https://x/1"},
		},
		{
			name:    "missing column",
			content: "name,price\na,1\n",
			limit:   10,
			wantErr: ErrMissingColumn,
		},
		{
			name:    "empty file",
			content: "",
			limit:   10,
			wantErr: ErrMissingColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "input.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			got, err := ReadURLs(path, tt.limit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadURLsMissingFile(t *testing.T) {
	_, err := ReadURLs(filepath.Join(t.TempDir(), "nope.csv"), 10)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
