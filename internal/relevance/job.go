package relevance

import (
	"context"
	"fmt"
	"time"

	"github.com/harrison/curator/internal/models"
)

// Job kinds whose results are applied to the selection automatically. Other
// kinds can still be polled and extracted, but their paths are only printed.
const (
	KindRelevanceAssessment = "file_relevance_assessment"
	KindExtendedPathFinder  = "extended_path_finder"
)

// AutoApplies reports whether a job kind's result feeds the selection
// without explicit confirmation.
func AutoApplies(kind string) bool {
	return kind == KindRelevanceAssessment || kind == KindExtendedPathFinder
}

// Logger is the subset of logging the poller uses.
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
}

type nopLogger struct{}

func (nopLogger) LogDebug(string) {}
func (nopLogger) LogWarn(string)  {}

// JobClient fetches the current state of a job by its opaque id.
type JobClient interface {
	GetJob(ctx context.Context, id string) (*models.Job, error)
}

const (
	defaultPollInterval = 2 * time.Second
	// maxPollFailures bounds consecutive fetch failures before giving up;
	// a single blip while a job is running should not abandon the wait.
	maxPollFailures = 3
)

// Poller waits for an asynchronous job to reach a terminal state.
type Poller struct {
	client   JobClient
	interval time.Duration
	log      Logger
}

// NewPoller creates a poller over the given client. A zero interval falls
// back to the default, and a nil logger is replaced with a no-op.
func NewPoller(client JobClient, interval time.Duration, log Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Poller{client: client, interval: interval, log: log}
}

// Await polls the job until it completes or fails and returns the terminal
// job. A failed job is still a successful await; callers inspect Status.
// The error return covers polling itself: context cancellation, or repeated
// fetch failures.
func (p *Poller) Await(ctx context.Context, id string) (*models.Job, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		job, err := p.client.GetJob(ctx, id)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			failures++
			if failures >= maxPollFailures {
				return nil, fmt.Errorf("failed to poll job %s: %w", id, err)
			}
			p.log.LogWarn(fmt.Sprintf("Job %s poll failed (%d/%d): %v", id, failures, maxPollFailures, err))
		default:
			failures = 0
			if job.Terminal() {
				return job, nil
			}
			p.log.LogDebug(fmt.Sprintf("Job %s still %s", id, job.Status))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
