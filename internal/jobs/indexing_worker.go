package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/rfpworks/rfpworks/internal/domain"
	"github.com/rfpworks/rfpworks/internal/service"
)

const (
	// MaxRetries is the maximum number of attempts for a failed index job.
	MaxRetries = 3
)

// IndexJobRepository defines the interface for index job persistence
type IndexJobRepository interface {
	// ClaimPending retrieves and claims pending index jobs
	ClaimPending(ctx context.Context, limit int) ([]*domain.IndexJob, error)

	// UpdateStatus updates the status of an index job
	UpdateStatus(ctx context.Context, id string, status domain.IndexJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, id string) error
}

// DocumentIndexer indexes one document's text into the vector index.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, input service.IndexInput) (int, error)
}

// IndexingWorker drains queued index jobs: each job re-runs the full
// chunk-embed-upsert pipeline for one document.
type IndexingWorker struct {
	repo      IndexJobRepository
	indexer   DocumentIndexer
	batchSize int
}

// NewIndexingWorker creates a new IndexingWorker instance
func NewIndexingWorker(repo IndexJobRepository, indexer DocumentIndexer) *IndexingWorker {
	return &IndexingWorker{
		repo:      repo,
		indexer:   indexer,
		batchSize: 100,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IndexingWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending index jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *IndexingWorker) processJob(ctx context.Context, job *domain.IndexJob) error {
	log.Printf("Processing job %s for document %s", job.ID, job.DocumentID)

	count, err := w.indexer.IndexDocument(ctx, service.IndexInput{
		DocumentID: job.DocumentID,
		OrgID:      job.OrgID,
		ProjectID:  job.ProjectID,
		Text:       job.Text,
		Metadata:   job.Metadata,
	})
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IndexJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed: %d chunks indexed for document %s", job.ID, count, job.DocumentID)
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *IndexingWorker) handleJobFailure(ctx context.Context, job *domain.IndexJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.IndexJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IndexJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}
	return nil
}
