package relevance

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/curator/internal/models"
)

// CommandRunner drives a local agent binary as the job backend: it runs one
// configured command and packages the combined output as a completed job.
// Output that decodes as a JSON object becomes the job's metadata, so a
// backend emitting {"files": [...]} takes the structured extraction path;
// anything else is left to the raw-text parser.
type CommandRunner struct {
	command string
	args    []string
	timeout time.Duration
}

// NewCommandRunner creates a runner from a command line split on
// whitespace. No shell is involved, so quoting is not interpreted.
func NewCommandRunner(commandLine string, timeout time.Duration) (*CommandRunner, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, fmt.Errorf("command is empty")
	}
	return &CommandRunner{
		command: fields[0],
		args:    fields[1:],
		timeout: timeout,
	}, nil
}

// Run executes the command and returns its result as a terminal job. A
// non-zero exit produces a failed job carrying the output; failing to start
// the command at all is returned as an error.
func (r *CommandRunner) Run(ctx context.Context) (*models.Job, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.command, r.args...)
	output, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	job := &models.Job{
		ID:        uuid.New().String(),
		Kind:      KindExtendedPathFinder,
		Status:    models.JobCompleted,
		RawOutput: string(output),
	}

	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("failed to run %s: %w", r.command, err)
		}
		job.Status = models.JobFailed
		job.Error = fmt.Sprintf("%s exited with code %d", r.command, exitErr.ExitCode())
		return job, nil
	}

	var metadata map[string]interface{}
	if json.Unmarshal(output, &metadata) == nil {
		job.Metadata = metadata
	}
	return job, nil
}
