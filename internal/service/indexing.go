package service

import (
	"context"
	"strings"
	"time"

	"github.com/rfpworks/rfpworks/internal/domain"
	"github.com/rfpworks/rfpworks/internal/telemetry"
)

// IndexService turns reference documents into embedded, filterable index
// points. Unlike retrieval, indexing fails loudly: a half-indexed document
// is worse than a visibly failed one.
type IndexService struct {
	index    VectorIndex
	embedder EmbeddingClient
	chunkCfg ChunkConfig
}

// NewIndexService creates an IndexService with default chunking parameters.
func NewIndexService(index VectorIndex, embedder EmbeddingClient) *IndexService {
	return NewIndexServiceWithConfig(index, embedder, DefaultChunkConfig())
}

// NewIndexServiceWithConfig creates an IndexService with explicit chunking
// parameters.
func NewIndexServiceWithConfig(index VectorIndex, embedder EmbeddingClient, cfg ChunkConfig) *IndexService {
	if cfg.ChunkSize <= 0 {
		cfg = DefaultChunkConfig()
	}
	return &IndexService{index: index, embedder: embedder, chunkCfg: cfg}
}

// IndexInput is one document to (re)index.
type IndexInput struct {
	DocumentID string
	OrgID      string
	ProjectID  string
	Text       string
	Metadata   domain.ChunkMetadata
}

// IndexDocument chunks and embeds the document text and replaces the
// document's points in the index. Re-indexing the same document id is
// idempotent: stale points are removed in the same write. Returns the
// number of chunks indexed; empty text indexes nothing and is not an error.
func (s *IndexService) IndexDocument(ctx context.Context, input IndexInput) (int, error) {
	if input.DocumentID == "" {
		return 0, domain.ErrEmptyDocumentID
	}
	if input.OrgID == "" {
		return 0, domain.ErrMissingOrgScope
	}
	if input.Metadata.DocumentType != "" && !domain.IsValidDocumentType(input.Metadata.DocumentType) {
		return 0, domain.ErrInvalidDocumentType
	}
	if s.index == nil || s.embedder == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}

	ctx, span := telemetry.StartSpan(ctx, "index.document", telemetry.SpanAttributes{
		OrgID:     input.OrgID,
		ProjectID: input.ProjectID,
		Operation: "index_document",
	})
	defer span.End()

	segments := SplitText(input.Text, s.chunkCfg)
	if len(segments) == 0 {
		// No content; still drop stale points so re-indexing an emptied
		// document converges.
		return 0, s.index.ReplaceDocumentChunks(ctx, input.DocumentID, nil)
	}

	now := time.Now().UTC()
	meta := input.Metadata
	if meta.UploadDate.IsZero() {
		meta.UploadDate = now
	}

	chunks := make([]domain.KnowledgeChunk, 0, len(segments))
	for i, content := range segments {
		embedding, err := s.embedder.GenerateEmbedding(ctx, content)
		if err != nil {
			span.SetError(err)
			return 0, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "failed to embed document chunk", err)
		}
		chunks = append(chunks, domain.KnowledgeChunk{
			ID:         domain.ChunkPointID(input.DocumentID, i),
			DocumentID: input.DocumentID,
			OrgID:      input.OrgID,
			ProjectID:  input.ProjectID,
			ChunkIndex: i,
			Content:    content,
			Embedding:  embedding,
			Metadata:   meta,
			CreatedAt:  now,
		})
	}

	if err := s.index.ReplaceDocumentChunks(ctx, input.DocumentID, chunks); err != nil {
		span.SetError(err)
		return 0, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to write index points", err)
	}
	return len(chunks), nil
}

// RemoveDocument deletes every index point belonging to the document.
// Removing an unknown document is a no-op.
func (s *IndexService) RemoveDocument(ctx context.Context, documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return domain.ErrEmptyDocumentID
	}
	if s.index == nil {
		return domain.ErrEmbeddingUnavailable
	}
	return s.index.DeleteDocument(ctx, documentID)
}
