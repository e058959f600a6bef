package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rfpworks/rfpworks/internal/api"
	"github.com/rfpworks/rfpworks/internal/domain"
	"github.com/rfpworks/rfpworks/internal/service"
)

// DocumentIndexer indexes and removes reference documents.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, input service.IndexInput) (int, error)
	RemoveDocument(ctx context.Context, documentID string) error
}

// IndexJobEnqueuer queues a document for background indexing.
type IndexJobEnqueuer interface {
	Create(ctx context.Context, job *domain.IndexJob) error
}

// StatsProvider reports index statistics per organization.
type StatsProvider interface {
	Stats(ctx context.Context, orgID string) (*service.IndexStats, error)
}

type DocumentHandler struct {
	indexer DocumentIndexer
	jobs    IndexJobEnqueuer
	stats   StatsProvider
}

func NewDocumentHandler(indexer DocumentIndexer, jobs IndexJobEnqueuer, stats StatsProvider) *DocumentHandler {
	return &DocumentHandler{indexer: indexer, jobs: jobs, stats: stats}
}

type IndexDocumentRequest struct {
	DocumentID      string   `json:"document_id"`
	OrgID           string   `json:"org_id"`
	ProjectID       string   `json:"project_id,omitempty"`
	Text            string   `json:"text"`
	Filename        string   `json:"filename,omitempty"`
	DocumentType    string   `json:"document_type,omitempty"`
	IndustryTags    []string `json:"industry_tags,omitempty"`
	CapabilityTags  []string `json:"capability_tags,omitempty"`
	ConfidenceLevel string   `json:"confidence_level,omitempty"`
	IsActive        *bool    `json:"is_active,omitempty"`
	Async           bool     `json:"async,omitempty"`
}

type IndexDocumentResponse struct {
	DocumentID    string `json:"document_id"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

type IndexJobResponse struct {
	JobID      string `json:"job_id"`
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

func (r *IndexDocumentRequest) metadata() domain.ChunkMetadata {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return domain.ChunkMetadata{
		Filename:        r.Filename,
		DocumentType:    domain.DocumentType(r.DocumentType),
		IndustryTags:    r.IndustryTags,
		CapabilityTags:  r.CapabilityTags,
		ConfidenceLevel: domain.ConfidenceLevel(r.ConfidenceLevel),
		IsActive:        active,
	}
}

// Index handles POST /documents/index. With async set, the document is
// queued and indexed by the background worker.
func (h *DocumentHandler) Index(w http.ResponseWriter, r *http.Request) {
	var req IndexDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DocumentID == "" {
		api.Error(w, http.StatusBadRequest, "document_id is required")
		return
	}
	if req.OrgID == "" {
		api.Error(w, http.StatusBadRequest, "org_id is required")
		return
	}
	if req.DocumentType != "" && !domain.IsValidDocumentType(domain.DocumentType(req.DocumentType)) {
		api.HandleError(w, domain.ErrInvalidDocumentType)
		return
	}

	if req.Async {
		job := &domain.IndexJob{
			ID:         uuid.NewString(),
			DocumentID: req.DocumentID,
			OrgID:      req.OrgID,
			ProjectID:  req.ProjectID,
			Text:       req.Text,
			Metadata:   req.metadata(),
			Status:     domain.IndexJobStatusPending,
			CreatedAt:  time.Now().UTC(),
		}
		if err := h.jobs.Create(r.Context(), job); err != nil {
			api.HandleError(w, err)
			return
		}
		api.Success(w, http.StatusAccepted, IndexJobResponse{
			JobID:      job.ID,
			DocumentID: job.DocumentID,
			Status:     string(job.Status),
		})
		return
	}

	count, err := h.indexer.IndexDocument(r.Context(), service.IndexInput{
		DocumentID: req.DocumentID,
		OrgID:      req.OrgID,
		ProjectID:  req.ProjectID,
		Text:       req.Text,
		Metadata:   req.metadata(),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, IndexDocumentResponse{
		DocumentID:    req.DocumentID,
		ChunksIndexed: count,
	})
}

// Delete handles DELETE /documents/{id}.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	documentID := strings.TrimSpace(chi.URLParam(r, "id"))
	if documentID == "" {
		api.Error(w, http.StatusBadRequest, "document id is required")
		return
	}

	if err := h.indexer.RemoveDocument(r.Context(), documentID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]interface{}{
		"document_id": documentID,
		"deleted":     true,
	})
}

// Stats handles GET /documents/stats.
func (h *DocumentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org_id")
	if orgID == "" {
		api.Error(w, http.StatusBadRequest, "org_id is required")
		return
	}

	stats, err := h.stats.Stats(r.Context(), orgID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, stats)
}
