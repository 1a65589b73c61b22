package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/maltedev/wayfair-price-tracker/internal/browser"
)

type Config struct {
	Browser   BrowserConfig
	Collector CollectorConfig
	Extractor ExtractorConfig
	Pricing   PricingConfig
	Output    OutputConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ProxyServer    string
}

type CollectorConfig struct {
	URL               string
	ContainerSelector string
	CardSelector      string
	TitleSelector     string
	ContainerTimeout  time.Duration
	MaxSteps          int
	WheelDelta        float64
	ScrollDelta       float64
	SettleDelay       time.Duration
}

type ExtractorConfig struct {
	BaseURL            string
	Keyword            string
	MaxPages           int
	NetworkIdleTimeout time.Duration
	NavigationRetries  int
}

type PricingConfig struct {
	Endpoint          string
	Username          string
	Password          string
	Source            string
	UserAgentType     string
	GeoLocation       string
	Render            string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	BackoffMin        time.Duration
	BackoffMax        time.Duration
	URLLimit          int
}

type OutputConfig struct {
	Dir        string
	InputFile  string
	RunLogFile string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	TextfilePath string
}

func Load() (*Config, error) {
	cfg := &Config{
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			UserAgent:      getEnvOrDefault("BROWSER_USER_AGENT", ""),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "America/New_York"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-US"),
			ProxyServer:    getEnvOrDefault("BROWSER_PROXY_SERVER", ""),
		},
		Collector: CollectorConfig{
			URL:               getEnvOrDefault("COLLECTOR_URL", "https://www.wayfair.com/furniture/sb0/desks-c1780384.html?redir=desk&rtype=9"),
			ContainerSelector: getEnvOrDefault("COLLECTOR_CONTAINER_SELECTOR", "section._1hwhogy1"),
			CardSelector:      getEnvOrDefault("COLLECTOR_CARD_SELECTOR", `div[data-node-id="SponsoredListingCollectionItem"]`),
			TitleSelector:     getEnvOrDefault("COLLECTOR_TITLE_SELECTOR", "h2"),
			ContainerTimeout:  getDurationOrDefault("COLLECTOR_CONTAINER_TIMEOUT", 15*time.Second),
			MaxSteps:          getIntOrDefault("COLLECTOR_MAX_STEPS", 25),
			WheelDelta:        getFloatOrDefault("COLLECTOR_WHEEL_DELTA", 600),
			ScrollDelta:       getFloatOrDefault("COLLECTOR_SCROLL_DELTA", 800),
			SettleDelay:       getDurationOrDefault("COLLECTOR_SETTLE_DELAY", 2500*time.Millisecond),
		},
		Extractor: ExtractorConfig{
			BaseURL:            getEnvOrDefault("EXTRACTOR_BASE_URL", "https://www.wayfair.com"),
			Keyword:            getEnvOrDefault("EXTRACTOR_KEYWORD", "desk"),
			MaxPages:           getIntOrDefault("EXTRACTOR_MAX_PAGES", 2),
			NetworkIdleTimeout: getDurationOrDefault("EXTRACTOR_NETWORK_IDLE_TIMEOUT", 30*time.Second),
			NavigationRetries:  getIntOrDefault("EXTRACTOR_NAVIGATION_RETRIES", 1),
		},
		Pricing: PricingConfig{
			Endpoint:          getEnvOrDefault("OXYLAB_ENDPOINT", "https://realtime.oxylabs.io/v1/queries"),
			Username:          getEnvOrDefault("OXYLAB_USERNAME", ""),
			Password:          getEnvOrDefault("OXYLAB_PASSWORD", ""),
			Source:            getEnvOrDefault("OXYLAB_SOURCE", "universal_ecommerce"),
			UserAgentType:     getEnvOrDefault("OXYLAB_USER_AGENT_TYPE", "desktop_safari"),
			GeoLocation:       getEnvOrDefault("OXYLAB_GEO_LOCATION", "United States"),
			Render:            getEnvOrDefault("OXYLAB_RENDER", "html"),
			RequestTimeout:    getDurationOrDefault("PRICING_REQUEST_TIMEOUT", 180*time.Second),
			RequestsPerSecond: getFloatOrDefault("PRICING_REQUESTS_PER_SECOND", 0),
			MaxRetries:        getIntOrDefault("PRICING_MAX_RETRIES", 3),
			BackoffMin:        getDurationOrDefault("PRICING_BACKOFF_MIN", 2*time.Second),
			BackoffMax:        getDurationOrDefault("PRICING_BACKOFF_MAX", 5*time.Second),
			URLLimit:          getIntOrDefault("PRICING_URL_LIMIT", 10),
		},
		Output: OutputConfig{
			Dir:        getEnvOrDefault("OUTPUT_DIR", "dat"),
			InputFile:  getEnvOrDefault("PRICING_INPUT_FILE", "dat/wayfair_bs4_products.csv"),
			RunLogFile: getEnvOrDefault("PRICING_RUN_LOG", "wayfair_scrape_log.txt"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
		Metrics: MetricsConfig{
			TextfilePath: getEnvOrDefault("METRICS_TEXTFILE", ""),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Browser.Timeout <= 0 {
		return fmt.Errorf("BROWSER_TIMEOUT must be positive")
	}

	if c.Collector.MaxSteps < 1 {
		return fmt.Errorf("COLLECTOR_MAX_STEPS must be at least 1")
	}

	if c.Collector.SettleDelay < 0 {
		return fmt.Errorf("COLLECTOR_SETTLE_DELAY cannot be negative")
	}

	if c.Collector.ContainerSelector == "" || c.Collector.CardSelector == "" {
		return fmt.Errorf("collector selectors cannot be empty")
	}

	if err := validateURL("EXTRACTOR_BASE_URL", c.Extractor.BaseURL); err != nil {
		return err
	}

	if c.Extractor.MaxPages < 1 {
		return fmt.Errorf("EXTRACTOR_MAX_PAGES must be at least 1")
	}

	if err := validateURL("OXYLAB_ENDPOINT", c.Pricing.Endpoint); err != nil {
		return err
	}

	if c.Pricing.MaxRetries < 1 {
		return fmt.Errorf("PRICING_MAX_RETRIES must be at least 1")
	}

	if c.Pricing.BackoffMin < 0 {
		return fmt.Errorf("PRICING_BACKOFF_MIN cannot be negative")
	}

	if c.Pricing.BackoffMin > c.Pricing.BackoffMax {
		return fmt.Errorf("PRICING_BACKOFF_MIN cannot be greater than PRICING_BACKOFF_MAX")
	}

	if c.Pricing.RequestsPerSecond < 0 {
		return fmt.Errorf("PRICING_REQUESTS_PER_SECOND cannot be negative")
	}

	if c.Pricing.URLLimit < 1 {
		return fmt.Errorf("PRICING_URL_LIMIT must be at least 1")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("OUTPUT_DIR cannot be empty")
	}

	return nil
}

// Options maps the browser section onto launch options, keeping the
// browser package defaults for anything left unset.
func (c BrowserConfig) Options() *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = c.Headless
	opts.Timeout = c.Timeout
	opts.ViewportWidth = c.ViewportWidth
	opts.ViewportHeight = c.ViewportHeight
	opts.AcceptLanguage = c.AcceptLanguage
	opts.TimezoneID = c.TimezoneID
	opts.Locale = c.Locale
	opts.ProxyServer = c.ProxyServer
	if c.UserAgent != "" {
		opts.UserAgent = c.UserAgent
	}
	return opts
}

// ValidateCredentials is checked only by the price refresh entry point.
func (c *PricingConfig) ValidateCredentials() error {
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("OXYLAB_USERNAME and OXYLAB_PASSWORD are required")
	}
	return nil
}

func validateURL(key, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", key, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must include scheme and host", key)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
