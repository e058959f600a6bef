package service

import (
	"context"

	"github.com/rfpworks/rfpworks/internal/domain"
)

// IndexJobRepositoryInterface defines persistence for queued index jobs.
type IndexJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IndexJob) error
	GetByID(ctx context.Context, id string) (*domain.IndexJob, error)
	ClaimPending(ctx context.Context, limit int) ([]*domain.IndexJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.IndexJobStatus, errMsg string) error
	IncrementRetries(ctx context.Context, id string) error
}

// TxRepositories provides repositories bound to a single transaction.
type TxRepositories interface {
	Chunks() VectorIndex
	Answers() AnswerWriter
	IndexJobs() IndexJobRepositoryInterface
}

// TxRunner runs a function within a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
