package relevance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harrison/curator/internal/models"
)

// HTTPJobClient fetches job state from a backend over HTTP. The backend
// serves GET {endpoint}/{id} with a JSON job document.
type HTTPJobClient struct {
	endpoint   string
	httpClient *http.Client
}

// wireJob is the backend's job document.
type wireJob struct {
	ID        string                 `json:"id"`
	Kind      string                 `json:"kind"`
	Status    string                 `json:"status"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	RawOutput string                 `json:"rawOutput,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// NewHTTPJobClient creates a client for the given job endpoint.
func NewHTTPJobClient(endpoint string, timeout time.Duration) *HTTPJobClient {
	return &HTTPJobClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetJob fetches the job's current state.
func (c *HTTPJobClient) GetJob(ctx context.Context, id string) (*models.Job, error) {
	url := fmt.Sprintf("%s/%s", c.endpoint, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create job request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to fetch job %s: %w", id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read job response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("job backend returned status %d for %s", resp.StatusCode, id)
	}

	var decoded wireJob
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode job response: %w", err)
	}

	job := &models.Job{
		ID:        decoded.ID,
		Kind:      decoded.Kind,
		Status:    models.JobStatus(decoded.Status),
		Metadata:  decoded.Metadata,
		RawOutput: decoded.RawOutput,
		Error:     decoded.Error,
	}
	if job.ID == "" {
		job.ID = id
	}
	return job, nil
}
