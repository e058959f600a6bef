package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rfpworks/rfpworks/internal/api"
	"github.com/rfpworks/rfpworks/internal/domain"
	"github.com/rfpworks/rfpworks/internal/pagination"
	"github.com/rfpworks/rfpworks/internal/service"
)

// AnswerGenerator runs the answer generation pipeline.
type AnswerGenerator interface {
	Generate(ctx context.Context, input service.GenerateInput) (*service.GenerateResult, error)
}

// AnswerReader lists previously generated answers.
type AnswerReader interface {
	ListByQuestion(ctx context.Context, questionID string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.GeneratedAnswer], error)
}

type AnswerHandler struct {
	svc     AnswerGenerator
	answers AnswerReader
}

func NewAnswerHandler(svc AnswerGenerator, answers AnswerReader) *AnswerHandler {
	return &AnswerHandler{svc: svc, answers: answers}
}

type GenerateAnswerRequest struct {
	QuestionID      string   `json:"question_id,omitempty"`
	QuestionText    string   `json:"question_text,omitempty"`
	OrgID           string   `json:"org_id,omitempty"`
	ProjectID       string   `json:"project_id,omitempty"`
	MaxChunks       int      `json:"max_chunks,omitempty"`
	DocumentTypes   []string `json:"document_types,omitempty"`
	IndustryTags    []string `json:"industry_tags,omitempty"`
	CapabilityTags  []string `json:"capability_tags,omitempty"`
	ConfidenceLevel string   `json:"confidence_level,omitempty"`
}

type SourceResponse struct {
	FileName         string `json:"file_name"`
	ChunkRef         string `json:"chunk_ref"`
	RelevancePercent int    `json:"relevance_percent"`
	TextExcerpt      string `json:"text_excerpt,omitempty"`
}

type AnswerResponse struct {
	ID          string           `json:"id"`
	QuestionID  string           `json:"question_id,omitempty"`
	Answer      string           `json:"answer"`
	Confidence  float64          `json:"confidence"`
	Sources     []SourceResponse `json:"sources"`
	GeneratedAt string           `json:"generated_at"`
}

type GenerateAnswerResponse struct {
	Success    bool           `json:"success"`
	Answer     AnswerResponse `json:"answer"`
	Grounded   bool           `json:"grounded"`
	ChunksUsed int            `json:"chunks_used"`
	Degraded   []string       `json:"degraded,omitempty"`
}

type AnswerListResponse struct {
	Answers []AnswerResponse `json:"answers"`
	Cursor  string           `json:"cursor,omitempty"`
	HasMore bool             `json:"has_more"`
}

func answerResponse(a *domain.GeneratedAnswer) AnswerResponse {
	sources := make([]SourceResponse, 0, len(a.Sources))
	for _, src := range a.Sources {
		sources = append(sources, SourceResponse{
			FileName:         src.FileName,
			ChunkRef:         src.ChunkRef,
			RelevancePercent: src.RelevancePercent,
			TextExcerpt:      src.TextExcerpt,
		})
	}
	return AnswerResponse{
		ID:          a.ID,
		QuestionID:  a.QuestionID,
		Answer:      a.Text,
		Confidence:  a.Confidence,
		Sources:     sources,
		GeneratedAt: a.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

// Generate handles POST /answers/generate.
func (h *AnswerHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.QuestionID == "" && req.QuestionText == "" {
		api.Error(w, http.StatusBadRequest, "question_id or question_text is required")
		return
	}
	if req.QuestionText != "" && req.OrgID == "" {
		api.Error(w, http.StatusBadRequest, "org_id is required")
		return
	}

	filter, err := filterFromRequest(req.DocumentTypes, req.IndustryTags, req.CapabilityTags, req.ConfidenceLevel)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	result, err := h.svc.Generate(r.Context(), service.GenerateInput{
		QuestionID:   req.QuestionID,
		QuestionText: req.QuestionText,
		Scope:        service.SearchScope{OrgID: req.OrgID, ProjectID: req.ProjectID},
		Filter:       filter,
		TopK:         req.MaxChunks,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, GenerateAnswerResponse{
		Success:    result.Success,
		Answer:     answerResponse(result.Answer),
		Grounded:   result.Metadata.Grounded,
		ChunksUsed: result.Metadata.ChunksUsed,
		Degraded:   result.Metadata.Degraded,
	})
}

// ListByQuestion handles GET /questions/{id}/answers.
func (h *AnswerHandler) ListByQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "id")
	if questionID == "" {
		api.Error(w, http.StatusBadRequest, "question id is required")
		return
	}

	cursor, err := pagination.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid cursor")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	limit = pagination.ClampLimit(limit, 20, 100)

	page, err := h.answers.ListByQuestion(r.Context(), questionID, cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	answers := make([]AnswerResponse, 0, len(page.Items))
	for _, a := range page.Items {
		answers = append(answers, answerResponse(a))
	}
	api.Success(w, http.StatusOK, AnswerListResponse{
		Answers: answers,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

// filterFromRequest validates and converts request filter fields.
func filterFromRequest(docTypes, industries, capabilities []string, confidence string) (domain.RetrievalFilter, error) {
	var filter domain.RetrievalFilter
	for _, t := range docTypes {
		dt := domain.DocumentType(t)
		if !domain.IsValidDocumentType(dt) {
			return filter, domain.ErrInvalidDocumentType
		}
		filter.DocumentTypes = append(filter.DocumentTypes, dt)
	}
	filter.IndustryTags = industries
	filter.CapabilityTags = capabilities
	if confidence != "" {
		cl := domain.ConfidenceLevel(confidence)
		if !domain.IsValidConfidenceLevel(cl) {
			return filter, domain.NewDomainError(domain.ErrCodeValidation, "invalid confidence level")
		}
		filter.ConfidenceLevel = cl
	}
	return filter, nil
}
