package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rfpworks/rfpworks/internal/api"
	"github.com/rfpworks/rfpworks/internal/service"
)

// SearchHandler exposes raw filtered similarity search, bypassing answer
// synthesis. Useful for tuning filters and inspecting what retrieval sees.
type SearchHandler struct {
	retriever service.Retriever
}

func NewSearchHandler(retriever service.Retriever) *SearchHandler {
	return &SearchHandler{retriever: retriever}
}

type SearchRequest struct {
	Query           string   `json:"query"`
	OrgID           string   `json:"org_id"`
	ProjectID       string   `json:"project_id,omitempty"`
	TopK            int      `json:"top_k,omitempty"`
	DocumentTypes   []string `json:"document_types,omitempty"`
	IndustryTags    []string `json:"industry_tags,omitempty"`
	CapabilityTags  []string `json:"capability_tags,omitempty"`
	ConfidenceLevel string   `json:"confidence_level,omitempty"`
}

type SearchResultResponse struct {
	ChunkID      string   `json:"chunk_id"`
	DocumentID   string   `json:"document_id"`
	Score        float32  `json:"score"`
	Content      string   `json:"content"`
	Filename     string   `json:"filename,omitempty"`
	DocumentType string   `json:"document_type,omitempty"`
	IndustryTags []string `json:"industry_tags,omitempty"`
	UploadDate   string   `json:"upload_date,omitempty"`
}

type SearchResponse struct {
	Results  []SearchResultResponse `json:"results"`
	Degraded []string               `json:"degraded,omitempty"`
}

// Search handles POST /search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.OrgID == "" {
		api.Error(w, http.StatusBadRequest, "org_id is required")
		return
	}

	filter, err := filterFromRequest(req.DocumentTypes, req.IndustryTags, req.CapabilityTags, req.ConfidenceLevel)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	result, err := h.retriever.Retrieve(r.Context(), req.Query,
		service.SearchScope{OrgID: req.OrgID, ProjectID: req.ProjectID}, filter, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	results := make([]SearchResultResponse, 0, len(result.Chunks))
	for _, sc := range result.Chunks {
		item := SearchResultResponse{
			ChunkID:      sc.Chunk.ID,
			DocumentID:   sc.Chunk.DocumentID,
			Score:        sc.Score,
			Content:      sc.Chunk.Content,
			Filename:     sc.Chunk.Metadata.Filename,
			DocumentType: string(sc.Chunk.Metadata.DocumentType),
			IndustryTags: sc.Chunk.Metadata.IndustryTags,
		}
		if !sc.Chunk.Metadata.UploadDate.IsZero() {
			item.UploadDate = sc.Chunk.Metadata.UploadDate.UTC().Format(time.RFC3339)
		}
		results = append(results, item)
	}

	api.Success(w, http.StatusOK, SearchResponse{
		Results:  results,
		Degraded: result.Degraded,
	})
}
