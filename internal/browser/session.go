package browser

import (
	"errors"
	"fmt"
)

// Session pairs a launched browser with the single page a pipeline drives.
type Session struct {
	browser *Browser
	page    Page
}

// OpenSession launches a browser and opens one page in it.
func OpenSession(opts *Options) (*Session, error) {
	b, err := New(opts)
	if err != nil {
		return nil, err
	}

	page, err := b.NewPage()
	if err != nil {
		b.Close()
		return nil, err
	}

	return &Session{browser: b, page: page}, nil
}

func (s *Session) Page() Page {
	return s.page
}

// Close releases the page and the browser. It is safe to call twice.
func (s *Session) Close() error {
	var errs []error

	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close page: %w", err))
		}
		s.page = nil
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		s.browser = nil
	}

	return errors.Join(errs...)
}

// openSession is swapped in tests to avoid launching a real browser.
var openSession = OpenSession

// WithSession runs fn against a fresh page and always releases the session,
// whether fn returns an error or panics.
func WithSession(opts *Options, fn func(Page) error) (err error) {
	s, err := openSession(opts)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(s.Page())
}
