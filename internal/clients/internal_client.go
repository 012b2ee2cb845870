package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// InternalTokenHeader carries the shared secret proving a service-to-service
// call origin. Peers reject requests without a valid token.
const InternalTokenHeader = "X-Internal-Token"

// ErrNotConfigured is returned when the service URL or internal token is
// missing. No network call is attempted in that case.
var ErrNotConfigured = errors.New("service URL or internal token not configured")

// RemoteError represents a non-2xx response from a peer service. Message is
// the peer's own error text when its body carried one.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// InternalClient issues authenticated calls to peer services and normalizes
// transport and HTTP failures into a single error channel.
type InternalClient struct {
	httpClient *http.Client
	token      string
}

// NewInternalClient creates a client carrying the shared internal token.
func NewInternalClient(token string) *InternalClient {
	return &InternalClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
	}
}

// Call performs an internal API call against baseURL+path and returns the
// decoded JSON body. 200 and 201 are the only success statuses; any other
// status yields a *RemoteError and transport failures are wrapped as-is.
func (c *InternalClient) Call(ctx context.Context, baseURL, path, method string, body interface{}) (interface{}, error) {
	if baseURL == "" || c.token == "" {
		return nil, ErrNotConfigured
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(InternalTokenHeader, c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("service connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		var payload interface{}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode response body: %w", err)
		}
		return payload, nil
	}

	return nil, &RemoteError{
		StatusCode: resp.StatusCode,
		Message:    remoteErrorMessage(resp),
	}
}

// remoteErrorMessage extracts the peer's own error field when present.
func remoteErrorMessage(resp *http.Response) string {
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if msg, ok := body["error"].(string); ok && msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("service returned HTTP %d", resp.StatusCode)
}
