package models

// JobStatus enumerates the lifecycle states of an asynchronous relevance job
type JobStatus string

const (
	// JobPending means the job has been accepted but not started
	JobPending JobStatus = "pending"
	// JobRunning means the job is currently executing
	JobRunning JobStatus = "running"
	// JobCompleted means the job finished and produced a result
	JobCompleted JobStatus = "completed"
	// JobFailed means the job terminated without a usable result
	JobFailed JobStatus = "failed"
)

// Job represents an asynchronous relevant-files search job. Only the
// terminal result is consumed here; scheduling and execution belong to the
// job backend.
type Job struct {
	ID        string                 // Opaque job identifier
	Kind      string                 // Job kind, e.g. "file_relevance_assessment"
	Status    JobStatus              // Current lifecycle state
	Metadata  map[string]interface{} // Structured result metadata; preferred path source
	RawOutput string                 // Raw text output; fallback path source
	Error     string                 // Failure description when Status is JobFailed
}

// Terminal returns true once the job can no longer change state
func (j *Job) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
