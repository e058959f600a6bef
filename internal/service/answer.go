package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rfpworks/rfpworks/internal/domain"
	"github.com/rfpworks/rfpworks/internal/telemetry"
)

// Retriever is the retrieval stage as consumed by the answer pipeline.
type Retriever interface {
	Retrieve(ctx context.Context, query string, scope SearchScope, filter domain.RetrievalFilter, topK int) (*RetrievalResult, error)
}

// CompletionClient defines the interface for grounded answer synthesis
type CompletionClient interface {
	GenerateCompletion(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error)
}

// QuestionGetter loads stored RFP questions.
type QuestionGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Question, error)
}

// AnswerWriter persists generated answers with their sources.
type AnswerWriter interface {
	Create(ctx context.Context, answer *domain.GeneratedAnswer) error
}

// AnswerConfig tunes the synthesis stage.
type AnswerConfig struct {
	// Temperature for grounded completions. Kept low so answers stay
	// close to the retrieved context.
	Temperature float32
	// TopK chunks requested from retrieval.
	TopK int
	// ReferenceLength is the answer length, in characters, at which the
	// length component of the confidence score saturates.
	ReferenceLength int
}

// DefaultAnswerConfig returns the synthesis defaults.
func DefaultAnswerConfig() AnswerConfig {
	return AnswerConfig{Temperature: 0.2, TopK: 8, ReferenceLength: 1500}
}

// AnswerService runs the full generation pipeline for one question: filter
// analysis, retrieval, context assembly, synthesis, confidence scoring, and
// persistence.
type AnswerService struct {
	retriever  Retriever
	analyzer   *FilterAnalyzer
	assembler  *ContextAssembler
	completion CompletionClient
	questions  QuestionGetter
	answers    AnswerWriter
	cfg        AnswerConfig
}

// NewAnswerService wires the pipeline. completion may be nil, in which case
// every answer uses the template fallback. questions and answers may be nil
// for callers that neither resolve stored questions nor persist results.
func NewAnswerService(
	retriever Retriever,
	analyzer *FilterAnalyzer,
	assembler *ContextAssembler,
	completion CompletionClient,
	questions QuestionGetter,
	answers AnswerWriter,
	cfg AnswerConfig,
) *AnswerService {
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultAnswerConfig().Temperature
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultAnswerConfig().TopK
	}
	if cfg.ReferenceLength <= 0 {
		cfg.ReferenceLength = DefaultAnswerConfig().ReferenceLength
	}
	if analyzer == nil {
		analyzer = NewFilterAnalyzer()
	}
	if assembler == nil {
		assembler = NewContextAssembler(DefaultMaxContextLength)
	}
	return &AnswerService{
		retriever:  retriever,
		analyzer:   analyzer,
		assembler:  assembler,
		completion: completion,
		questions:  questions,
		answers:    answers,
		cfg:        cfg,
	}
}

// GenerateInput is one answer-generation request. QuestionText may be empty
// when QuestionID refers to a stored question. Filter, when set, overrides
// the analyzer's derived predicates key by key.
type GenerateInput struct {
	QuestionID   string
	QuestionText string
	Scope        SearchScope
	Filter       domain.RetrievalFilter
	TopK         int
}

// GenerateMetadata describes how an answer was produced.
type GenerateMetadata struct {
	Grounded       bool                   `json:"grounded"`
	ChunksUsed     int                    `json:"chunks_used"`
	ContextLength  int                    `json:"context_length"`
	FiltersApplied domain.RetrievalFilter `json:"-"`
	Degraded       []string               `json:"degraded,omitempty"`
}

// GenerateResult is the outcome of one generation request. Success is true
// whenever an answer text was produced, including template fallbacks.
type GenerateResult struct {
	Success  bool
	Answer   *domain.GeneratedAnswer
	Metadata GenerateMetadata
}

// Generate answers one RFP question. Missing or failing providers degrade
// to a template fallback; only an unresolvable question or a persistence
// failure returns an error.
func (s *AnswerService) Generate(ctx context.Context, input GenerateInput) (*GenerateResult, error) {
	questionText := strings.TrimSpace(input.QuestionText)
	if questionText == "" && input.QuestionID != "" && s.questions != nil {
		q, err := s.questions.GetByID(ctx, input.QuestionID)
		if err != nil {
			return nil, err
		}
		questionText = strings.TrimSpace(q.Text)
		if input.Scope.OrgID == "" {
			input.Scope.OrgID = q.OrgID
		}
		if input.Scope.ProjectID == "" {
			input.Scope.ProjectID = q.ProjectID
		}
	}
	if questionText == "" {
		return nil, domain.ErrEmptyQuestion
	}

	ctx, span := telemetry.StartSpan(ctx, "answer.generate", telemetry.SpanAttributes{
		OrgID:      input.Scope.OrgID,
		ProjectID:  input.Scope.ProjectID,
		QuestionID: input.QuestionID,
		Operation:  "generate_answer",
	})
	defer span.End()

	filter := domain.MergeFilters(s.analyzer.Analyze(questionText), input.Filter)

	retrieval, err := s.retriever.Retrieve(ctx, questionText, input.Scope, filter, input.TopK)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	assembled := s.assembler.Assemble(retrieval.Chunks)
	degraded := append([]string(nil), retrieval.Degraded...)

	text, confidence, grounded := s.synthesize(ctx, questionText, assembled, &degraded)

	answer := &domain.GeneratedAnswer{
		ID:          uuid.NewString(),
		QuestionID:  input.QuestionID,
		Text:        text,
		Confidence:  confidence,
		GeneratedAt: time.Now().UTC(),
	}
	if grounded {
		answer.Sources = assembled.Sources
	}

	if input.QuestionID != "" && s.answers != nil {
		if err := s.answers.Create(ctx, answer); err != nil {
			span.SetError(err)
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to persist generated answer", err)
		}
	}

	return &GenerateResult{
		Success: true,
		Answer:  answer,
		Metadata: GenerateMetadata{
			Grounded:       grounded,
			ChunksUsed:     assembled.ChunksUsed,
			ContextLength:  assembled.TotalLength,
			FiltersApplied: filter,
			Degraded:       degraded,
		},
	}, nil
}

// synthesize produces the answer text and its confidence, reporting whether
// it is grounded in retrieved context.
func (s *AnswerService) synthesize(ctx context.Context, question string, assembled *AssembledContext, degraded *[]string) (string, float64, bool) {
	switch {
	case s.completion == nil:
		*degraded = append(*degraded, "completion provider not configured")
	case assembled.Empty():
		// Nothing to ground on; retrieval degradation reasons, if any, are
		// already recorded.
	default:
		text, err := s.completion.GenerateCompletion(ctx, answerSystemPrompt, buildAnswerPrompt(question, assembled.Text), s.cfg.Temperature)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, scoreConfidence(assembled.Scores, len(text), s.cfg.ReferenceLength), true
		}
		log.Printf("answer synthesis falling back to template: %v", err)
		telemetry.CaptureError(ctx, err)
		*degraded = append(*degraded, "completion provider unavailable")
	}

	text, confidence := fallbackAnswer(question)
	return text, confidence, false
}

const answerSystemPrompt = `You are a professional proposal writer responding to RFP questions on behalf of a consulting company. Write clear, confident, well-structured answers. Use only the information provided in the context; do not invent clients, numbers, or certifications. When the context covers the question partially, answer what it supports and note where project-specific detail would be added.`

func buildAnswerPrompt(question, contextText string) string {
	var b strings.Builder
	b.WriteString("Answer the following RFP question using the retrieved company knowledge below.\n\n")
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nContext:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nProvide a professional, detailed response that addresses all aspects of the question using the specific information from the context.")
	return b.String()
}

const (
	confidenceFloor   = 0.1
	confidenceCeiling = 0.95

	fallbackConfidenceMatched = 0.4
	fallbackConfidenceGeneric = 0.3
)

// scoreConfidence combines retrieval quality, answer length, and context
// breadth into a single [0.1, 0.95] score. Retrieval similarity dominates;
// the other two components saturate at 1500 characters and 5 chunks.
func scoreConfidence(scores []float32, answerLen, referenceLength int) float64 {
	if len(scores) == 0 {
		return fallbackConfidenceGeneric
	}

	var sum float64
	for _, s := range scores {
		sum += float64(s)
	}
	avgScore := sum / float64(len(scores))

	lengthFactor := float64(answerLen) / float64(referenceLength)
	if lengthFactor > 1 {
		lengthFactor = 1
	}
	chunkFactor := float64(len(scores)) / 5
	if chunkFactor > 1 {
		chunkFactor = 1
	}

	c := 0.6*avgScore + 0.2*lengthFactor + 0.2*chunkFactor
	if c < confidenceFloor {
		return confidenceFloor
	}
	if c > confidenceCeiling {
		return confidenceCeiling
	}
	return c
}

// fallbackTemplate is a canned answer used when synthesis cannot be
// grounded in retrieved context.
type fallbackTemplate struct {
	topic    string
	keywords []string
	text     string
}

var fallbackTemplates = []fallbackTemplate{
	{
		topic:    "experience",
		keywords: []string{"experience", "track record", "past project", "portfolio"},
		text:     "Our team brings extensive experience in delivering similar projects. We have successfully completed comparable engagements for organizations of similar scale, consistently meeting deadlines and exceeding quality expectations.",
	},
	{
		topic:    "approach",
		keywords: []string{"approach", "methodology", "process"},
		text:     "We follow a proven, structured methodology that combines industry best practices with tailored solutions. Each engagement begins with a discovery phase, followed by iterative delivery with regular stakeholder checkpoints.",
	},
	{
		topic:    "timeline",
		keywords: []string{"timeline", "schedule", "duration", "how long"},
		text:     "Based on the scope described, we estimate a phased delivery over the agreed period. A detailed project plan with milestones and dependencies will be provided during the planning phase.",
	},
	{
		topic:    "team",
		keywords: []string{"team", "staff", "personnel"},
		text:     "The engagement will be staffed by senior practitioners with directly relevant expertise, led by an experienced delivery manager as your single point of contact.",
	},
	{
		topic:    "cost",
		keywords: []string{"cost", "price", "pricing", "budget", "rate"},
		text:     "Our pricing is transparent and structured around clear deliverables. A detailed cost breakdown will be provided based on the final scope of work.",
	},
}

const fallbackNote = "*Please note: this is a template response. For a detailed, project-specific answer, populate the knowledge base with relevant company documents.*"

// fallbackAnswer selects a canned template by keyword, or a generic one
// when no topic matches.
func fallbackAnswer(question string) (string, float64) {
	q := strings.ToLower(question)
	for _, tpl := range fallbackTemplates {
		if containsAny(q, tpl.keywords) {
			return tpl.text + "\n\n" + fallbackNote, fallbackConfidenceMatched
		}
	}
	generic := "Thank you for your question. We are committed to delivering high-quality solutions tailored to your requirements and will provide specific details during the proposal discussion."
	return generic + "\n\n" + fallbackNote, fallbackConfidenceGeneric
}
