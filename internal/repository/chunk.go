package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/rfpworks/rfpworks/internal/domain"
	"github.com/rfpworks/rfpworks/internal/service"
)

// ChunkRepository persists embedded document chunks in the document_chunks
// table, which doubles as the similarity index via its pgvector column.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx dbtx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// ReplaceDocumentChunks deletes a document's existing chunks and inserts
// the new set. Callers needing atomicity run it inside a transaction.
func (r *ChunkRepository) ReplaceDocumentChunks(ctx context.Context, documentID string, chunks []domain.KnowledgeChunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO document_chunks
				(id, document_id, org_id, project_id, chunk_index, content, embedding,
				 filename, document_type, industry_tags, capability_tags, confidence_level,
				 is_active, upload_date, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			c.ID,
			c.DocumentID,
			c.OrgID,
			nullableString(c.ProjectID),
			c.ChunkIndex,
			c.Content,
			pgvector.NewVector(c.Embedding),
			c.Metadata.Filename,
			nullableString(string(c.Metadata.DocumentType)),
			c.Metadata.IndustryTags,
			c.Metadata.CapabilityTags,
			nullableString(string(c.Metadata.ConfidenceLevel)),
			c.Metadata.IsActive,
			c.Metadata.UploadDate,
			createdAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Search returns the chunks nearest to the query embedding, scoped to one
// organization and filtered by every set metadata predicate. The score maps
// cosine distance into (0, 1], higher meaning more similar.
func (r *ChunkRepository) Search(ctx context.Context, embedding []float32, scope service.SearchScope, filter domain.RetrievalFilter, limit int) ([]*service.ScoredChunk, error) {
	if limit <= 0 {
		limit = 8
	}

	var sb strings.Builder
	sb.WriteString(
		`SELECT id, document_id, org_id, project_id, chunk_index, content,
		        filename, document_type, industry_tags, capability_tags, confidence_level,
		        is_active, upload_date, created_at,
		        1.0 / (1.0 + (embedding <=> $1)) AS score
		 FROM document_chunks
		 WHERE org_id = $2 AND is_active`)
	args := []any{pgvector.NewVector(embedding), scope.OrgID}

	if scope.ProjectID != "" {
		args = append(args, scope.ProjectID)
		fmt.Fprintf(&sb, " AND project_id = $%d", len(args))
	}
	if len(filter.DocumentTypes) > 0 {
		types := make([]string, len(filter.DocumentTypes))
		for i, t := range filter.DocumentTypes {
			types[i] = string(t)
		}
		args = append(args, types)
		fmt.Fprintf(&sb, " AND document_type = ANY($%d)", len(args))
	}
	if len(filter.IndustryTags) > 0 {
		args = append(args, filter.IndustryTags)
		fmt.Fprintf(&sb, " AND industry_tags && $%d", len(args))
	}
	if len(filter.CapabilityTags) > 0 {
		args = append(args, filter.CapabilityTags)
		fmt.Fprintf(&sb, " AND capability_tags && $%d", len(args))
	}
	if filter.ConfidenceLevel != "" {
		args = append(args, string(filter.ConfidenceLevel))
		fmt.Fprintf(&sb, " AND confidence_level = $%d", len(args))
	}

	args = append(args, limit)
	fmt.Fprintf(&sb, " ORDER BY embedding <=> $1 LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*service.ScoredChunk
	for rows.Next() {
		var (
			c          domain.KnowledgeChunk
			projectID  pgtype.Text
			docType    pgtype.Text
			confidence pgtype.Text
			score      float64
		)
		if err := rows.Scan(
			&c.ID, &c.DocumentID, &c.OrgID, &projectID, &c.ChunkIndex, &c.Content,
			&c.Metadata.Filename, &docType, &c.Metadata.IndustryTags, &c.Metadata.CapabilityTags, &confidence,
			&c.Metadata.IsActive, &c.Metadata.UploadDate, &c.CreatedAt,
			&score,
		); err != nil {
			return nil, err
		}
		if projectID.Valid {
			c.ProjectID = projectID.String
		}
		if docType.Valid {
			c.Metadata.DocumentType = domain.DocumentType(docType.String)
		}
		if confidence.Valid {
			c.Metadata.ConfidenceLevel = domain.ConfidenceLevel(confidence.String)
		}
		results = append(results, &service.ScoredChunk{Chunk: c, Score: float32(score)})
	}
	return results, rows.Err()
}

// DeleteDocument removes every chunk belonging to the document. Deleting a
// document with no chunks is a no-op.
func (r *ChunkRepository) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	return err
}

// Stats counts an organization's indexed documents and chunks.
func (r *ChunkRepository) Stats(ctx context.Context, orgID string) (*service.IndexStats, error) {
	var stats service.IndexStats
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT document_id), COUNT(*) FROM document_chunks WHERE org_id = $1`,
		orgID,
	).Scan(&stats.Documents, &stats.Chunks)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
