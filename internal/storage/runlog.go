package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/maltedev/wayfair-price-tracker/internal/models"
)

// AppendRunSummary appends one summary block to the run log, creating the
// file when needed. Existing blocks are never rewritten.
func AppendRunSummary(path string, s models.RunSummary) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}

	if err := writeRunSummary(f, s); err != nil {
		f.Close()
		return fmt.Errorf("failed to append run log: %w", err)
	}
	return f.Close()
}

func writeRunSummary(w io.Writer, s models.RunSummary) error {
	_, err := fmt.Fprintf(w,
		"\n[%s] New Run\nTotal URLs: %d\nSuccessful fetches: %d\nFailed fetches: %d\nSuccess rate: %.2f%%\nAverage time per URL: %.2f seconds\n%s\n",
		s.Timestamp.Format(timestampLayout),
		s.TotalURLs,
		s.SuccessCount,
		s.FailureCount,
		s.SuccessRate,
		s.AvgTimeSec,
		strings.Repeat("=", 40),
	)
	return err
}
