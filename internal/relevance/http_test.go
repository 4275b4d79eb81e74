package relevance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/curator/internal/models"
)

func TestHTTPJobClient_GetJob(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "job-42",
			"kind": "file_relevance_assessment",
			"status": "completed",
			"metadata": {"files": ["src/main.go"]},
			"rawOutput": "src/main.go"
		}`))
	}))
	defer server.Close()

	client := NewHTTPJobClient(server.URL+"/jobs/", 5*time.Second)
	job, err := client.GetJob(context.Background(), "job-42")
	require.NoError(t, err)

	assert.Equal(t, "/jobs/job-42", gotPath)
	assert.Equal(t, "job-42", job.ID)
	assert.Equal(t, KindRelevanceAssessment, job.Kind)
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.Equal(t, "src/main.go", job.RawOutput)
	assert.Equal(t, []string{"src/main.go"}, Extract(job.Metadata, job.RawOutput))
}

func TestHTTPJobClient_FillsMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "running"}`))
	}))
	defer server.Close()

	client := NewHTTPJobClient(server.URL, time.Second)
	job, err := client.GetJob(context.Background(), "job-7")
	require.NoError(t, err)
	assert.Equal(t, "job-7", job.ID)
	assert.Equal(t, models.JobRunning, job.Status)
	assert.False(t, job.Terminal())
}

func TestHTTPJobClient_ErrorStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such job", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPJobClient(server.URL, time.Second)
	_, err := client.GetJob(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestHTTPJobClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewHTTPJobClient(server.URL, time.Second)
	_, err := client.GetJob(context.Background(), "job-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode job response")
}

func TestHTTPJobClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	client := NewHTTPJobClient(server.URL, time.Minute)
	_, err := client.GetJob(ctx, "job-1")
	require.ErrorIs(t, err, context.Canceled)
}
