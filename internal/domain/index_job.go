package domain

import (
	"fmt"
	"time"
)

// IndexJobStatus represents the status of a document index job
type IndexJobStatus string

const (
	IndexJobStatusPending    IndexJobStatus = "pending"
	IndexJobStatusProcessing IndexJobStatus = "processing"
	IndexJobStatusCompleted  IndexJobStatus = "completed"
	IndexJobStatusFailed     IndexJobStatus = "failed"
)

// IndexJob represents an async document indexing job. The extracted text and
// metadata are captured at enqueue time so the worker needs no access to the
// upload pipeline.
type IndexJob struct {
	ID          string
	DocumentID  string
	OrgID       string
	ProjectID   string
	Text        string
	Metadata    ChunkMetadata
	Status      IndexJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// ValidateIndexJob validates an IndexJob instance
func ValidateIndexJob(j *IndexJob) error {
	if j == nil {
		return fmt.Errorf("index job cannot be nil")
	}
	if j.ID == "" {
		return fmt.Errorf("index job ID is required")
	}
	if j.DocumentID == "" {
		return fmt.Errorf("index job DocumentID is required")
	}
	if j.OrgID == "" {
		return fmt.Errorf("index job OrgID is required")
	}
	if !isValidIndexJobStatus(j.Status) {
		return fmt.Errorf("index job Status is invalid: %s", j.Status)
	}
	if j.Retries < 0 {
		return fmt.Errorf("index job Retries cannot be negative")
	}
	return nil
}

// isValidIndexJobStatus checks if an IndexJobStatus is valid
func isValidIndexJobStatus(s IndexJobStatus) bool {
	switch s {
	case IndexJobStatusPending, IndexJobStatusProcessing,
		IndexJobStatusCompleted, IndexJobStatusFailed:
		return true
	}
	return false
}
