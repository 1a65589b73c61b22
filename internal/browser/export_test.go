package browser

import (
	"context"
	"log/slog"
	"time"
)

// UseSessionPage makes WithSession hand out page instead of launching a
// browser, until the returned func is called.
func UseSessionPage(page Page) (restore func()) {
	prev := openSession
	openSession = func(*Options) (*Session, error) {
		return &Session{page: page}, nil
	}
	return func() { openSession = prev }
}

// FailSessionOpen makes WithSession fail to launch with err.
func FailSessionOpen(err error) (restore func()) {
	prev := openSession
	openSession = func(*Options) (*Session, error) {
		return nil, err
	}
	return func() { openSession = prev }
}

// NavigateWithRetrySleep is NavigateWithRetry with the retry pause replaced.
func NavigateWithRetrySleep(ctx context.Context, page Page, url string, maxRetries int, logger *slog.Logger, sleep func(context.Context, time.Duration) error) error {
	return navigateWithRetry(ctx, page, url, maxRetries, logger, sleep)
}

// CloseAll runs closeAll over anonymous steps.
func CloseAll(fns ...func() error) error {
	steps := make([]closeStep, 0, len(fns))
	for _, fn := range fns {
		steps = append(steps, closeStep{name: "close", fn: fn})
	}
	return closeAll(steps...)
}
