package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPLister fetches directory listings from a remote endpoint via JSON POST.
type HTTPLister struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPLister creates a lister that posts requests to the given endpoint.
// The HTTP client timeout is set from the supplied duration.
func NewHTTPLister(endpoint string, timeout time.Duration) *HTTPLister {
	return &HTTPLister{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// wireResponse is the JSON body returned by the listing endpoint. A reply
// carries either files (with optional stats) or an error string.
type wireResponse struct {
	Files []string   `json:"files"`
	Stats []FileStat `json:"stats"`
	Error string     `json:"error"`
}

// List posts the request to the endpoint and decodes the reply. HTTP statuses
// 400, 403, 404 and 500 map to distinct failure categories; anything else
// non-OK maps to CategoryUnknown.
func (l *HTTPLister) List(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode listing request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build listing request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(httpReq)
	if err != nil {
		// Surface cancellation unwrapped so callers can treat an aborted
		// request as a clean no-op
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &Error{Category: CategoryUnknown, Message: "listing request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Category: CategoryUnknown, Message: "failed to read listing response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, data)
	}

	var decoded wireResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, &Error{Category: CategoryServer, Message: "malformed listing response", Err: err}
	}
	if decoded.Error != "" {
		return nil, &Error{Category: CategoryServer, Message: decoded.Error}
	}

	return &Response{Files: decoded.Files, Stats: decoded.Stats}, nil
}

// statusError maps an endpoint HTTP status onto a failure category, reusing
// the error string from the body when the endpoint supplied one.
func statusError(status int, body []byte) *Error {
	message := fmt.Sprintf("listing endpoint returned status %d", status)
	var decoded wireResponse
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error != "" {
		message = decoded.Error
	}

	var category Category
	switch status {
	case http.StatusBadRequest:
		category = CategoryBadRequest
	case http.StatusForbidden:
		category = CategoryPermission
	case http.StatusNotFound:
		category = CategoryNotFound
	case http.StatusInternalServerError:
		category = CategoryServer
	default:
		category = CategoryUnknown
	}

	return &Error{Category: category, Message: message}
}
