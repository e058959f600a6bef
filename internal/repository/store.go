package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rfpworks/rfpworks/internal/domain"
	"github.com/rfpworks/rfpworks/internal/pagination"
	"github.com/rfpworks/rfpworks/internal/service"
)

// VectorStore is the pool-level VectorIndex handed to services. Reads run
// directly on the pool; the multi-statement document replacement runs
// through the transaction runner so a document is never half-replaced.
type VectorStore struct {
	reads  *ChunkRepository
	runner *TxRunner
}

func NewVectorStore(pool *pgxpool.Pool) *VectorStore {
	return &VectorStore{
		reads:  NewChunkRepository(pool),
		runner: NewTxRunner(pool),
	}
}

func (s *VectorStore) ReplaceDocumentChunks(ctx context.Context, documentID string, chunks []domain.KnowledgeChunk) error {
	return s.runner.WithTx(ctx, func(repos service.TxRepositories) error {
		return repos.Chunks().ReplaceDocumentChunks(ctx, documentID, chunks)
	})
}

func (s *VectorStore) Search(ctx context.Context, embedding []float32, scope service.SearchScope, filter domain.RetrievalFilter, limit int) ([]*service.ScoredChunk, error) {
	return s.reads.Search(ctx, embedding, scope, filter, limit)
}

func (s *VectorStore) DeleteDocument(ctx context.Context, documentID string) error {
	return s.reads.DeleteDocument(ctx, documentID)
}

func (s *VectorStore) Stats(ctx context.Context, orgID string) (*service.IndexStats, error) {
	return s.reads.Stats(ctx, orgID)
}

// AnswerStore is the pool-level AnswerWriter: the answer row and its
// source rows commit together.
type AnswerStore struct {
	reads  *AnswerRepository
	runner *TxRunner
}

func NewAnswerStore(pool *pgxpool.Pool) *AnswerStore {
	return &AnswerStore{
		reads:  NewAnswerRepository(pool),
		runner: NewTxRunner(pool),
	}
}

func (s *AnswerStore) Create(ctx context.Context, a *domain.GeneratedAnswer) error {
	return s.runner.WithTx(ctx, func(repos service.TxRepositories) error {
		return repos.Answers().Create(ctx, a)
	})
}

func (s *AnswerStore) GetByID(ctx context.Context, id string) (*domain.GeneratedAnswer, error) {
	return s.reads.GetByID(ctx, id)
}

func (s *AnswerStore) ListByQuestion(ctx context.Context, questionID string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.GeneratedAnswer], error) {
	return s.reads.ListByQuestion(ctx, questionID, cursor, limit)
}
