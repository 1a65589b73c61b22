package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrMissingColumn = errors.New("input table has no url column")

// ReadURLs returns up to limit non-blank values of the url column of a CSV
// table, in row order. Rows with a blank url are skipped and do not count
// toward limit. A limit of zero or less reads every row.
func ReadURLs(path string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", path, ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")), "url") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingColumn)
	}

	var urls []string
	for rowNum := 1; limit <= 0 || len(urls) < limit; rowNum++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", rowNum, err)
		}
		if col >= len(row) {
			continue
		}
		if u := strings.TrimSpace(row[col]); u != "" {
			urls = append(urls, u)
		}
	}

	return urls, nil
}
