// Package browsertest provides in-memory stand-ins for browser.Page and
// browser.Element.
package browsertest

import (
	"fmt"
	"time"

	"github.com/maltedev/wayfair-price-tracker/internal/browser"
)

// Element is a static node. Children are keyed by the exact selector string.
type Element struct {
	Text      string
	TextErr   error
	Attrs     map[string]string
	AttrErr   error
	Children  map[string][]browser.Element
	QueryFunc func(selector string) ([]browser.Element, error)
}

func (e *Element) Query(selector string) (browser.Element, error) {
	children, err := e.QueryAll(selector)
	if err != nil || len(children) == 0 {
		return nil, err
	}
	return children[0], nil
}

func (e *Element) QueryAll(selector string) ([]browser.Element, error) {
	if e.QueryFunc != nil {
		return e.QueryFunc(selector)
	}
	return e.Children[selector], nil
}

func (e *Element) InnerText() (string, error) {
	return e.Text, e.TextErr
}

func (e *Element) Attribute(name string) (string, error) {
	if e.AttrErr != nil {
		return "", e.AttrErr
	}
	return e.Attrs[name], nil
}

// Page records every interaction so tests can assert on it.
type Page struct {
	Navigated []string
	Wheels    int
	Scripts   []string
	IdleWaits int
	Closed    bool

	// Elements answers WaitForSelector and Query by exact selector.
	Elements map[string]browser.Element
	// Lists answers QueryAll by exact selector.
	Lists map[string][]browser.Element

	NavigateFunc    func(url string) error
	NetworkIdleFunc func(url string) error
	QueryFunc       func(selector string) (browser.Element, error)
	QueryAllFunc    func(url, selector string) ([]browser.Element, error)
}

// CurrentURL returns the last navigated URL.
func (p *Page) CurrentURL() string {
	if len(p.Navigated) == 0 {
		return ""
	}
	return p.Navigated[len(p.Navigated)-1]
}

func (p *Page) Navigate(url string) error {
	p.Navigated = append(p.Navigated, url)
	if p.NavigateFunc != nil {
		return p.NavigateFunc(url)
	}
	return nil
}

func (p *Page) WaitForSelector(selector string, timeout time.Duration) (browser.Element, error) {
	el, err := p.Query(selector)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, fmt.Errorf("%w: %s", browser.ErrTimeout, selector)
	}
	return el, nil
}

func (p *Page) WaitForNetworkIdle(timeout time.Duration) error {
	p.IdleWaits++
	if p.NetworkIdleFunc != nil {
		return p.NetworkIdleFunc(p.CurrentURL())
	}
	return nil
}

func (p *Page) Query(selector string) (browser.Element, error) {
	if p.QueryFunc != nil {
		return p.QueryFunc(selector)
	}
	if el, ok := p.Elements[selector]; ok {
		return el, nil
	}
	return nil, nil
}

func (p *Page) QueryAll(selector string) ([]browser.Element, error) {
	if p.QueryAllFunc != nil {
		return p.QueryAllFunc(p.CurrentURL(), selector)
	}
	return p.Lists[selector], nil
}

func (p *Page) Wheel(dx, dy float64) error {
	p.Wheels++
	return nil
}

func (p *Page) Evaluate(script string) error {
	p.Scripts = append(p.Scripts, script)
	return nil
}

func (p *Page) Close() error {
	p.Closed = true
	return nil
}

// Elements builds n blank elements.
func Elements(n int) []browser.Element {
	elements := make([]browser.Element, n)
	for i := range elements {
		elements[i] = &Element{Text: fmt.Sprintf("card %d", i+1)}
	}
	return elements
}
