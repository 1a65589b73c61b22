package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/maltedev/wayfair-price-tracker/internal/browser"
	"github.com/maltedev/wayfair-price-tracker/internal/config"
	"github.com/maltedev/wayfair-price-tracker/internal/extractor"
	"github.com/maltedev/wayfair-price-tracker/internal/metrics"
	"github.com/maltedev/wayfair-price-tracker/internal/models"
	"github.com/maltedev/wayfair-price-tracker/internal/storage"
	"github.com/maltedev/wayfair-price-tracker/pkg/logger"
)

func main() {
	var (
		keyword    = flag.String("keyword", "", "Search keyword (defaults to EXTRACTOR_KEYWORD)")
		maxPages   = flag.Int("pages", 0, "Maximum number of pages to scrape (defaults to EXTRACTOR_MAX_PAGES)")
		outputFile = flag.String("output", "", "Output CSV file (defaults to a dated file in OUTPUT_DIR)")
		headless   = flag.Bool("headless", true, "Run browser in headless mode")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *keyword != "" {
		cfg.Extractor.Keyword = *keyword
	}
	if *maxPages > 0 {
		cfg.Extractor.MaxPages = *maxPages
	}
	cfg.Browser.Headless = *headless && cfg.Browser.Headless

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting Wayfair search extractor", "keyword", cfg.Extractor.Keyword, "pages", cfg.Extractor.MaxPages)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := run(ctx, cfg, *outputFile, logger); err != nil {
		logger.Error("Extractor failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, outputFile string, logger *slog.Logger) error {
	m := metrics.New()
	defer func() {
		if err := m.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn("Failed to write metrics", "error", err)
		}
	}()

	opts := extractor.DefaultOptions()
	opts.BaseURL = cfg.Extractor.BaseURL
	opts.NetworkIdleTimeout = cfg.Extractor.NetworkIdleTimeout
	opts.NavigationRetries = cfg.Extractor.NavigationRetries

	var records []models.ProductRecord
	err := browser.WithSession(cfg.Browser.Options(), func(page browser.Page) error {
		var err error
		records, err = extractor.New(page, opts, logger, m).Extract(ctx, cfg.Extractor.Keyword, cfg.Extractor.MaxPages)
		return err
	})
	if err != nil {
		return err
	}

	if outputFile == "" {
		outputFile = filepath.Join(cfg.Output.Dir, storage.ProductsFilename(cfg.Extractor.Keyword, time.Now()))
	}
	if err := storage.WriteProducts(outputFile, records); err != nil {
		return fmt.Errorf("failed to save products: %w", err)
	}
	m.AddRecords("products", len(records))

	fmt.Printf("Done! %d products saved to %s\n", len(records), outputFile)
	return nil
}
