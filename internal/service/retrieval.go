package service

import (
	"context"
	"log"
	"strings"

	"github.com/rfpworks/rfpworks/internal/domain"
	"github.com/rfpworks/rfpworks/internal/telemetry"
)

// SearchScope restricts index operations to one organization and optionally
// one project within it. Every read and write carries a scope.
type SearchScope struct {
	OrgID     string
	ProjectID string
}

// ScoredChunk pairs a retrieved chunk with its similarity score in [0, 1].
type ScoredChunk struct {
	Chunk domain.KnowledgeChunk
	Score float32
}

// IndexStats summarizes one organization's slice of the vector index.
type IndexStats struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}

// VectorIndex is the similarity index the pipeline writes to and queries.
type VectorIndex interface {
	// ReplaceDocumentChunks atomically swaps a document's index points for
	// the given set. An empty set removes the document from the index.
	ReplaceDocumentChunks(ctx context.Context, documentID string, chunks []domain.KnowledgeChunk) error
	Search(ctx context.Context, embedding []float32, scope SearchScope, filter domain.RetrievalFilter, limit int) ([]*ScoredChunk, error)
	DeleteDocument(ctx context.Context, documentID string) error
	Stats(ctx context.Context, orgID string) (*IndexStats, error)
}

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Degradation reasons attached to retrieval results. A degraded retrieval
// is not an error: downstream stages fall back instead of failing the
// request.
const (
	DegradedNoEmbedder   = "embedding provider not configured"
	DegradedNoIndex      = "vector index not configured"
	DegradedEmbedFailed  = "embedding provider unavailable"
	DegradedSearchFailed = "vector index unavailable"
)

// RetrievalConfig bounds a similarity search.
type RetrievalConfig struct {
	TopK     int
	MinScore float32
}

// DefaultRetrievalConfig returns the retrieval bounds used when the caller
// does not override them.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{TopK: 8, MinScore: 0.6}
}

// RetrievalResult carries the retrieved chunks plus any degradation
// reasons, ordered by descending score.
type RetrievalResult struct {
	Chunks   []*ScoredChunk
	Degraded []string
}

// IsDegraded reports whether any pipeline stage was skipped or failed soft.
func (r *RetrievalResult) IsDegraded() bool {
	return len(r.Degraded) > 0
}

// RetrievalService embeds a query and runs a filtered similarity search
// against the vector index.
type RetrievalService struct {
	index    VectorIndex
	embedder EmbeddingClient
	cfg      RetrievalConfig
}

// NewRetrievalService creates a RetrievalService with default bounds.
// Either dependency may be nil; retrieval then degrades to empty results.
func NewRetrievalService(index VectorIndex, embedder EmbeddingClient) *RetrievalService {
	return NewRetrievalServiceWithConfig(index, embedder, DefaultRetrievalConfig())
}

// NewRetrievalServiceWithConfig creates a RetrievalService with explicit
// bounds.
func NewRetrievalServiceWithConfig(index VectorIndex, embedder EmbeddingClient, cfg RetrievalConfig) *RetrievalService {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultRetrievalConfig().TopK
	}
	return &RetrievalService{index: index, embedder: embedder, cfg: cfg}
}

// Retrieve returns up to topK chunks relevant to the query, scoped and
// filtered. Provider outages come back as a degraded empty result, never as
// an error; only an empty query is rejected.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, scope SearchScope, filter domain.RetrievalFilter, topK int) (*RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuestion
	}
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	ctx, span := telemetry.StartSpan(ctx, "retrieval.search", telemetry.SpanAttributes{
		OrgID:     scope.OrgID,
		ProjectID: scope.ProjectID,
		Operation: "vector_search",
	})
	defer span.End()

	if s.embedder == nil {
		return &RetrievalResult{Degraded: []string{DegradedNoEmbedder}}, nil
	}
	if s.index == nil {
		return &RetrievalResult{Degraded: []string{DegradedNoIndex}}, nil
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		log.Printf("retrieval degraded, embedding failed: %v", err)
		telemetry.CaptureError(ctx, err)
		return &RetrievalResult{Degraded: []string{DegradedEmbedFailed}}, nil
	}

	chunks, err := s.index.Search(ctx, embedding, scope, filter, topK)
	if err != nil {
		log.Printf("retrieval degraded, index search failed: %v", err)
		telemetry.CaptureError(ctx, err)
		return &RetrievalResult{Degraded: []string{DegradedSearchFailed}}, nil
	}

	kept := make([]*ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		if c.Score >= s.cfg.MinScore {
			kept = append(kept, c)
		}
	}
	return &RetrievalResult{Chunks: kept}, nil
}

// Stats reports how many documents and chunks an organization has indexed.
func (s *RetrievalService) Stats(ctx context.Context, orgID string) (*IndexStats, error) {
	if orgID == "" {
		return nil, domain.ErrMissingOrgScope
	}
	if s.index == nil {
		return &IndexStats{}, nil
	}
	return s.index.Stats(ctx, orgID)
}
