package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/orabank/digital-banking/internal/ledger"
)

// ErrJobNotFound is returned when no job has the requested ID.
var ErrJobNotFound = errors.New("job not found")

// ErrQueueClosed is returned when publishing to or starting a stopped queue.
var ErrQueueClosed = errors.New("queue is closed")

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeTransfer represents a transfer submission.
	JobTypeTransfer JobType = "transfer"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed. Transfers are never retried.
	JobStatusFailed JobStatus = "failed"
)

// TransferJob represents a submitted transfer waiting to be posted.
type TransferJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// SessionID is the session that submitted the transfer.
	SessionID string `json:"session_id"`

	// Request is the transfer form as submitted.
	Request ledger.TransferRequest `json:"request"`

	// TransactionID is the ID of the posted debit once the job completes.
	TransactionID string `json:"transaction_id,omitempty"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *TransferJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *TransferJob) GetType() JobType {
	return JobTypeTransfer
}

// GetStatus implements the Job interface.
func (j *TransferJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher enqueues transfer jobs.
type Publisher interface {
	// PublishTransfer assigns an ID if needed and enqueues the job.
	PublishTransfer(ctx context.Context, job *TransferJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer runs jobs taken from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes one transfer. It may set TransactionID on the job.
// A returned error marks the job failed.
type JobHandler func(ctx context.Context, job *TransferJob) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *TransferJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*TransferJob, error)

	// ListJobs retrieves jobs with optional filtering, oldest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*TransferJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// SessionID filters jobs by submitting session.
	SessionID string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
