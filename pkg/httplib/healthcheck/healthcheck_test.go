package healthcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheck_Handler(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	testCases := []struct {
		name   string
		method string
		path   string
		checks map[string]Checker
		code   int
		body   string
	}{
		{name: "healthy", method: http.MethodGet, path: "/health", code: http.StatusOK, body: "ok\n"},
		{
			name:   "store down",
			method: http.MethodGet,
			path:   "/health",
			checks: map[string]Checker{"questdb": func(ctx context.Context) error { return errors.New("connection refused") }},
			code:   http.StatusServiceUnavailable,
			body:   "questdb: connection refused\n",
		},
		{name: "passthrough", method: http.MethodGet, path: "/metrics", code: http.StatusTeapot},
		{name: "post is not a probe", method: http.MethodPost, path: "/health", code: http.StatusTeapot},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HealthCheck{Checks: tc.checks}.Handler(next).ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))

			assert.Equal(t, tc.code, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}
