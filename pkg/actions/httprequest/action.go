// Package httprequest provides the HTTP Request action dispatcher.
package httprequest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hookflow/hookflow/pkg/models"
	"github.com/hookflow/hookflow/pkg/protocol"
)

const defaultTimeoutSeconds = 30

// Action performs an HTTP request against a configured endpoint.
type Action struct {
	Endpoint string
	Method   string
	Headers  map[string]string
	Body     string
	Timeout  time.Duration

	client *http.Client
}

// NewAction creates an HTTP Request action from resolved node configuration.
// A missing endpoint is a fatal configuration error.
func NewAction(config map[string]any) (*Action, error) {
	endpoint, _ := config["endpoint"].(string)
	if endpoint == "" {
		return nil, protocol.NewFatalError("HTTP request failed: URL is required")
	}

	method, _ := config["httpMethod"].(string)
	if method == "" {
		method = http.MethodPost
	}

	headersBlob, _ := config["httpHeaders"].(string)
	body, _ := config["httpBody"].(string)

	return &Action{
		Endpoint: endpoint,
		Method:   strings.ToUpper(method),
		Headers:  parseHeaders(headersBlob),
		Body:     body,
		Timeout:  defaultTimeoutSeconds * time.Second,
	}, nil
}

// parseHeaders decodes the headers config blob. The editor stores headers as
// a JSON string; malformed JSON silently yields no headers.
func parseHeaders(blob string) map[string]string {
	headers := make(map[string]string)

	if blob == "" {
		return headers
	}

	if err := json.Unmarshal([]byte(blob), &headers); err != nil {
		return map[string]string{}
	}

	return headers
}

// requestBody applies the body rules: GET requests never carry a body; JSON
// bodies are re-encoded compactly when non-empty; empty objects and blank
// strings are omitted; unparsable non-empty text passes through raw.
func (a *Action) requestBody() io.Reader {
	if a.Method == http.MethodGet || a.Body == "" {
		return nil
	}

	var parsed any

	err := json.Unmarshal([]byte(a.Body), &parsed)
	if err != nil {
		trimmed := strings.TrimSpace(a.Body)
		if trimmed == "" || trimmed == "{}" {
			return nil
		}

		return strings.NewReader(a.Body)
	}

	switch v := parsed.(type) {
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
	case []any:
		if len(v) == 0 {
			return nil
		}
	default:
		// Bare JSON primitives carry no fields to send.
		return nil
	}

	encoded, err := json.Marshal(parsed)
	if err != nil {
		return nil
	}

	return strings.NewReader(string(encoded))
}

// Execute performs the request and classifies the response: 2xx/3xx succeed,
// 4xx is a fatal client error, 5xx is a retryable failure result, and
// transport errors are failure results.
func (a *Action) Execute(ctx context.Context, logger *slog.Logger) (models.ExecutionResult, error) {
	logger = logger.With("module", "http_request_action")
	logger.InfoContext(ctx, "Executing HTTP request", "method", a.Method, "endpoint", a.Endpoint)

	req, err := http.NewRequestWithContext(ctx, a.Method, a.Endpoint, a.requestBody())
	if err != nil {
		return failure("HTTP request failed: %v", err), nil
	}

	for key, value := range a.Headers {
		req.Header.Set(key, value)
	}

	client := a.client
	if client == nil {
		client = &http.Client{Timeout: a.Timeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return failure("HTTP request failed: %v", err), nil
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := parseResponseBody(resp)
	if err != nil {
		return failure("HTTP request failed: %v", err), nil
	}

	data := map[string]any{
		"status": resp.StatusCode,
		"body":   body,
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		logger.WarnContext(ctx, "HTTP request returned server error", "status", resp.StatusCode)

		return models.ExecutionResult{
			Success: false,
			Data:    data,
			Error:   fmt.Sprintf("HTTP request failed with status %d", resp.StatusCode),
		}, nil
	case resp.StatusCode >= http.StatusBadRequest:
		return models.ExecutionResult{}, protocol.NewFatalError(
			"HTTP request failed with status %d", resp.StatusCode)
	default:
		logger.InfoContext(ctx, "HTTP request completed", "status", resp.StatusCode)

		return models.ExecutionResult{Success: true, Data: data}, nil
	}
}

// parseResponseBody decodes the response: JSON when the content type says so,
// raw text otherwise.
func parseResponseBody(resp *http.Response) (any, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var body any

		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("failed to parse JSON response: %w", err)
		}

		return body, nil
	}

	return string(raw), nil
}

func failure(format string, args ...any) models.ExecutionResult {
	return models.ExecutionResult{Success: false, Error: fmt.Sprintf(format, args...)}
}
