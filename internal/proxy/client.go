// Package proxy is a client for a remote rendering service that fetches a
// page, runs its client-side scripts and returns the final HTML.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/maltedev/wayfair-price-tracker/internal/ratelimit"
)

var (
	ErrMalformedResponse = errors.New("malformed proxy response")
	ErrEmptyResults      = errors.New("proxy response has no results")
)

// StatusError is returned for any non-200 reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("proxy request failed with status %d", e.Code)
}

type Options struct {
	Endpoint          string
	Username          string
	Password          string
	Source            string
	UserAgentType     string
	GeoLocation       string
	Render            string
	Timeout           time.Duration
	RequestsPerSecond float64
}

func DefaultOptions() Options {
	return Options{
		Endpoint:      "https://realtime.oxylabs.io/v1/queries",
		Source:        "universal_ecommerce",
		UserAgentType: "desktop_safari",
		GeoLocation:   "United States",
		Render:        "html",
		Timeout:       180 * time.Second,
	}
}

type request struct {
	Source        string `json:"source"`
	URL           string `json:"url"`
	UserAgentType string `json:"user_agent_type"`
	GeoLocation   string `json:"geo_location"`
	Render        string `json:"render"`
}

type response struct {
	Results []struct {
		Content    string `json:"content"`
		StatusCode int    `json:"status_code"`
		URL        string `json:"url"`
	} `json:"results"`
}

type Client struct {
	http  *http.Client
	opts  Options
	pacer *ratelimit.Pacer
}

func NewClient(opts Options) *Client {
	return &Client{
		http:  &http.Client{Timeout: opts.Timeout},
		opts:  opts,
		pacer: ratelimit.NewPacer(opts.RequestsPerSecond),
	}
}

// SetTransport swaps the underlying round tripper.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.http.Transport = rt
}

// Render asks the service to render targetURL and returns the HTML.
func (c *Client) Render(ctx context.Context, targetURL string) (string, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(request{
		Source:        c.opts.Source,
		URL:           targetURL,
		UserAgentType: c.opts.UserAgentType,
		GeoLocation:   c.opts.GeoLocation,
		Render:        c.opts.Render,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.opts.Username, c.opts.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("proxy request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(decoded.Results) == 0 {
		return "", ErrEmptyResults
	}

	return decoded.Results[0].Content, nil
}
