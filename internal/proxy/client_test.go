package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEndpoint = "https://realtime.example.test/v1/queries"

func newTestClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()

	opts := DefaultOptions()
	opts.Endpoint = testEndpoint
	opts.Username = "user"
	opts.Password = "secret"

	transport := httpmock.NewMockTransport()
	c := NewClient(opts)
	c.SetTransport(transport)
	return c, transport
}

func TestRenderSendsConfiguredPayload(t *testing.T) {
	c, transport := newTestClient(t)

	var got request
	var user, pass string
	transport.RegisterResponder(http.MethodPost, testEndpoint, func(req *http.Request) (*http.Response, error) {
		user, pass, _ = req.BasicAuth()
		if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
			return nil, err
		}
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
			"results": []map[string]any{{"content": "<html>ok</html>", "status_code": 200}},
		})
	})

	html, err := c.Render(context.Background(), "https://www.wayfair.com/p/desk.html")
	require.NoError(t, err)

	assert.Equal(t, "<html>ok</html>", html)
	assert.Equal(t, "user", user)
	assert.Equal(t, "secret", pass)
	assert.Equal(t, request{
		Source:        "universal_ecommerce",
		URL:           "https://www.wayfair.com/p/desk.html",
		UserAgentType: "desktop_safari",
		GeoLocation:   "United States",
		Render:        "html",
	}, got)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestRenderFailures(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
		check     func(t *testing.T, err error)
	}{
		{
			name:      "non-200 status",
			responder: httpmock.NewStringResponder(http.StatusUnauthorized, `{"message":"Unauthorized"}`),
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
				assert.Contains(t, statusErr.Body, "Unauthorized")
			},
		},
		{
			name:      "malformed json",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"results": [`),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedResponse)
			},
		},
		{
			name:      "empty results",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"results": []}`),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyResults)
			},
		},
		{
			name:      "transport error",
			responder: httpmock.NewErrorResponder(errors.New("connection reset by peer")),
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "connection reset by peer")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, transport := newTestClient(t)
			transport.RegisterResponder(http.MethodPost, testEndpoint, tt.responder)

			html, err := c.Render(context.Background(), "https://www.wayfair.com/p/desk.html")
			require.Error(t, err)
			assert.Empty(t, html)
			tt.check(t, err)
		})
	}
}

func TestRenderCancelledContext(t *testing.T) {
	c, transport := newTestClient(t)
	transport.RegisterResponder(http.MethodPost, testEndpoint, httpmock.NewStringResponder(http.StatusOK, `{"results":[{"content":"x"}]}`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Render(ctx, "https://www.wayfair.com/p/desk.html")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, transport.GetTotalCallCount())
}
