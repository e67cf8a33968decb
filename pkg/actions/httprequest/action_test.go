package httprequest_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hookflow/hookflow/pkg/actions/httprequest"
	"github.com/hookflow/hookflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		config   map[string]any
		expected *httprequest.Action
	}{
		{
			name: "defaults to POST",
			config: map[string]any{
				"endpoint": "https://api.example.com/hook",
			},
			expected: &httprequest.Action{
				Endpoint: "https://api.example.com/hook",
				Method:   "POST",
				Headers:  map[string]string{},
				Timeout:  30 * time.Second,
			},
		},
		{
			name: "method uppercased and headers parsed",
			config: map[string]any{
				"endpoint":    "https://api.example.com/data",
				"httpMethod":  "get",
				"httpHeaders": `{"Authorization": "Bearer token123"}`,
			},
			expected: &httprequest.Action{
				Endpoint: "https://api.example.com/data",
				Method:   "GET",
				Headers:  map[string]string{"Authorization": "Bearer token123"},
				Timeout:  30 * time.Second,
			},
		},
		{
			name: "malformed headers blob yields no headers",
			config: map[string]any{
				"endpoint":    "https://api.example.com/data",
				"httpHeaders": "not json at all",
			},
			expected: &httprequest.Action{
				Endpoint: "https://api.example.com/data",
				Method:   "POST",
				Headers:  map[string]string{},
				Timeout:  30 * time.Second,
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			action, err := httprequest.NewAction(testCase.config)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, action)
		})
	}
}

func TestNewActionMissingEndpointIsFatal(t *testing.T) {
	t.Parallel()

	_, err := httprequest.NewAction(map[string]any{"httpMethod": "POST"})
	require.Error(t, err)
	assert.True(t, protocol.IsFatal(err))
	assert.Contains(t, err.Error(), "URL is required")
}

func TestExecuteSuccessParsesJSONBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7}`))
	}))
	defer server.Close()

	action, err := httprequest.NewAction(map[string]any{
		"endpoint":   server.URL,
		"httpMethod": "POST",
		"httpBody":   `{"name": "Ada"}`,
	})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), discardLogger())
	require.NoError(t, err)
	assert.True(t, result.Success)

	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, data["status"])
	assert.Equal(t, map[string]any{"id": float64(7)}, data["body"])
}

func TestExecuteNonJSONResponseReturnsText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	}))
	defer server.Close()

	action, err := httprequest.NewAction(map[string]any{"endpoint": server.URL})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), discardLogger())
	require.NoError(t, err)
	assert.True(t, result.Success)

	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pong", data["body"])
}

func TestExecuteClientErrorIsFatal(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer server.Close()

	action, err := httprequest.NewAction(map[string]any{"endpoint": server.URL})
	require.NoError(t, err)

	_, err = action.Execute(context.Background(), discardLogger())
	require.Error(t, err)
	assert.True(t, protocol.IsFatal(err))
	assert.Contains(t, err.Error(), "status 404")
}

func TestExecuteServerErrorIsRetryableFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	action, err := httprequest.NewAction(map[string]any{"endpoint": server.URL})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), discardLogger())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "status 500")

	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, data["status"])
}

func TestExecuteTransportErrorIsFailureResult(t *testing.T) {
	t.Parallel()

	action, err := httprequest.NewAction(map[string]any{
		"endpoint": "http://127.0.0.1:1", // nothing listens here
	})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), discardLogger())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "HTTP request failed")
}

func TestExecuteBodyRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		method       string
		body         string
		expectedBody string
	}{
		{
			name:         "GET never carries a body",
			method:       "GET",
			body:         `{"k": "v"}`,
			expectedBody: "",
		},
		{
			name:         "JSON body is re-encoded compactly",
			method:       "POST",
			body:         `{ "k" : "v" }`,
			expectedBody: `{"k":"v"}`,
		},
		{
			name:         "empty JSON object is omitted",
			method:       "POST",
			body:         `{}`,
			expectedBody: "",
		},
		{
			name:         "unparsable non-empty text passes through raw",
			method:       "POST",
			body:         "plain payload",
			expectedBody: "plain payload",
		},
		{
			name:         "blank body is omitted",
			method:       "POST",
			body:         "",
			expectedBody: "",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			var received string

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				raw, _ := io.ReadAll(r.Body)
				received = string(raw)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			action, err := httprequest.NewAction(map[string]any{
				"endpoint":   server.URL,
				"httpMethod": testCase.method,
				"httpBody":   testCase.body,
			})
			require.NoError(t, err)

			result, err := action.Execute(context.Background(), discardLogger())
			require.NoError(t, err)
			assert.True(t, result.Success)
			assert.Equal(t, testCase.expectedBody, received)
		})
	}
}
