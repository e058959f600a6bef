package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rfpworks/rfpworks/internal/domain"
)

func newAnswerService(retriever Retriever, completion CompletionClient, questions QuestionGetter, answers AnswerWriter) *AnswerService {
	return NewAnswerService(retriever, nil, nil, completion, questions, answers, DefaultAnswerConfig())
}

func retrievalWith(chunks ...*ScoredChunk) *RetrievalResult {
	return &RetrievalResult{Chunks: chunks}
}

func TestAnswerService_EmptyQuestion(t *testing.T) {
	svc := newAnswerService(new(MockRetriever), nil, nil, nil)

	_, err := svc.Generate(context.Background(), GenerateInput{QuestionText: "   "})

	assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
}

func TestAnswerService_GroundedAnswer(t *testing.T) {
	chunks := []*ScoredChunk{
		scoredChunk("doc-1_0", "We migrated a hospital network to the cloud.", 0.92),
		scoredChunk("doc-1_1", "The migration finished in nine months.", 0.85),
	}

	retriever := new(MockRetriever)
	retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(retrievalWith(chunks...), nil)

	completion := new(MockCompletionClient)
	completion.On("GenerateCompletion", mock.Anything, mock.Anything, mock.Anything, float32(0.2)).
		Return("We have deep healthcare cloud migration experience, including a nine-month hospital network migration.", nil)

	svc := newAnswerService(retriever, completion, nil, nil)

	result, err := svc.Generate(context.Background(), GenerateInput{
		QuestionText: "Describe your experience with cloud migration for healthcare.",
		Scope:        SearchScope{OrgID: "org-1"},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Metadata.Grounded)
	assert.Equal(t, 2, result.Metadata.ChunksUsed)
	assert.Empty(t, result.Metadata.Degraded)

	require.NotNil(t, result.Answer)
	assert.Contains(t, result.Answer.Text, "healthcare cloud migration")
	assert.NotEmpty(t, result.Answer.ID)
	assert.Len(t, result.Answer.Sources, 2)
	assert.InDelta(t, 0.92, float64(result.Answer.Sources[0].RelevancePercent)/100, 0.005)
	assert.GreaterOrEqual(t, result.Answer.Confidence, 0.1)
	assert.LessOrEqual(t, result.Answer.Confidence, 0.95)

	completion.AssertExpectations(t)
}

func TestAnswerService_PromptCarriesQuestionAndContext(t *testing.T) {
	retriever := new(MockRetriever)
	retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(retrievalWith(scoredChunk("doc-1_0", "Context sentence about staffing.", 0.9)), nil)

	var gotUser string
	completion := new(MockCompletionClient)
	completion.On("GenerateCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { gotUser = args.String(2) }).
		Return("answer", nil)

	svc := newAnswerService(retriever, completion, nil, nil)

	_, err := svc.Generate(context.Background(), GenerateInput{
		QuestionText: "How do you staff engagements?",
		Scope:        SearchScope{OrgID: "org-1"},
	})

	require.NoError(t, err)
	assert.Contains(t, gotUser, "How do you staff engagements?")
	assert.Contains(t, gotUser, "Context sentence about staffing.")
	assert.Contains(t, gotUser, "=== CHUNK 1 ===")
}

func TestAnswerService_AnalyzerFilterReachesRetriever(t *testing.T) {
	retriever := new(MockRetriever)
	retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything,
		mock.MatchedBy(func(f domain.RetrievalFilter) bool {
			return len(f.DocumentTypes) == 2 && f.DocumentTypes[0] == domain.DocumentTypePricingTemplates
		}), mock.Anything).
		Return(&RetrievalResult{}, nil)

	svc := newAnswerService(retriever, nil, nil, nil)

	_, err := svc.Generate(context.Background(), GenerateInput{
		QuestionText: "What is your pricing model?",
		Scope:        SearchScope{OrgID: "org-1"},
	})

	require.NoError(t, err)
	retriever.AssertExpectations(t)
}

func TestAnswerService_CallerFilterOverridesAnalyzer(t *testing.T) {
	override := domain.RetrievalFilter{DocumentTypes: []domain.DocumentType{domain.DocumentTypeCertifications}}

	retriever := new(MockRetriever)
	retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything,
		mock.MatchedBy(func(f domain.RetrievalFilter) bool {
			return len(f.DocumentTypes) == 1 && f.DocumentTypes[0] == domain.DocumentTypeCertifications
		}), mock.Anything).
		Return(&RetrievalResult{}, nil)

	svc := newAnswerService(retriever, nil, nil, nil)

	_, err := svc.Generate(context.Background(), GenerateInput{
		QuestionText: "What is your pricing model?",
		Scope:        SearchScope{OrgID: "org-1"},
		Filter:       override,
	})

	require.NoError(t, err)
	retriever.AssertExpectations(t)
}

func TestAnswerService_FallbackWhenNoCompletionProvider(t *testing.T) {
	retriever := new(MockRetriever)
	retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(retrievalWith(scoredChunk("doc-1_0", "some context", 0.9)), nil)

	svc := newAnswerService(retriever, nil, nil, nil)

	result, err := svc.Generate(context.Background(), GenerateInput{
		QuestionText: "What is your pricing model?",
		Scope:        SearchScope{OrgID: "org-1"},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Metadata.Grounded)
	assert.Contains(t, result.Metadata.Degraded, "completion provider not configured")
	assert.Empty(t, result.Answer.Sources)
	assert.Contains(t, result.Answer.Text, "pricing")
	assert.Contains(t, result.Answer.Text, "template response")
	assert.Equal(t, fallbackConfidenceMatched, result.Answer.Confidence)
}

func TestAnswerService_FallbackWhenCompletionFails(t *testing.T) {
	retriever := new(MockRetriever)
	retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(retrievalWith(scoredChunk("doc-1_0", "some context", 0.9)), nil)

	completion := new(MockCompletionClient)
	completion.On("GenerateCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("model overloaded"))

	svc := newAnswerService(retriever, completion, nil, nil)

	result, err := svc.Generate(context.Background(), GenerateInput{
		QuestionText: "Summarize your track record.",
		Scope:        SearchScope{OrgID: "org-1"},
	})

	require.NoError(t, err)
	assert.False(t, result.Metadata.Grounded)
	assert.Contains(t, result.Metadata.Degraded, "completion provider unavailable")
	assert.Equal(t, fallbackConfidenceMatched, result.Answer.Confidence)
}

func TestAnswerService_FallbackWhenNoContext(t *testing.T) {
	retriever := new(MockRetriever)
	retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&RetrievalResult{}, nil)

	completion := new(MockCompletionClient)

	svc := newAnswerService(retriever, completion, nil, nil)

	result, err := svc.Generate(context.Background(), GenerateInput{
		QuestionText: "Do you have offices in Antarctica?",
		Scope:        SearchScope{OrgID: "org-1"},
	})

	require.NoError(t, err)
	assert.False(t, result.Metadata.Grounded)
	assert.Equal(t, fallbackConfidenceGeneric, result.Answer.Confidence)
	completion.AssertNotCalled(t, "GenerateCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnswerService_DegradedRetrievalStillAnswers(t *testing.T) {
	retriever := new(MockRetriever)
	retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&RetrievalResult{Degraded: []string{DegradedNoEmbedder}}, nil)

	svc := newAnswerService(retriever, new(MockCompletionClient), nil, nil)

	result, err := svc.Generate(context.Background(), GenerateInput{
		QuestionText: "Describe your methodology.",
		Scope:        SearchScope{OrgID: "org-1"},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Metadata.Degraded, DegradedNoEmbedder)
	assert.NotEmpty(t, result.Answer.Text)
}

func TestAnswerService_ResolvesStoredQuestion(t *testing.T) {
	questions := new(MockQuestionGetter)
	questions.On("GetByID", mock.Anything, "q-1").Return(&domain.Question{
		ID:    "q-1",
		OrgID: "org-7",
		Text:  "What certifications do you hold?",
	}, nil)

	retriever := new(MockRetriever)
	retriever.On("Retrieve", mock.Anything, "What certifications do you hold?",
		SearchScope{OrgID: "org-7"}, mock.Anything, mock.Anything).
		Return(&RetrievalResult{}, nil)

	answers := new(MockAnswerWriter)
	answers.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := newAnswerService(retriever, nil, questions, answers)

	result, err := svc.Generate(context.Background(), GenerateInput{QuestionID: "q-1"})

	require.NoError(t, err)
	assert.Equal(t, "q-1", result.Answer.QuestionID)
	retriever.AssertExpectations(t)
	answers.AssertExpectations(t)
}

func TestAnswerService_UnknownQuestion(t *testing.T) {
	questions := new(MockQuestionGetter)
	questions.On("GetByID", mock.Anything, "q-404").Return(nil, domain.ErrQuestionNotFound)

	svc := newAnswerService(new(MockRetriever), nil, questions, nil)

	_, err := svc.Generate(context.Background(), GenerateInput{QuestionID: "q-404"})

	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
}

func TestAnswerService_PersistenceFailure(t *testing.T) {
	retriever := new(MockRetriever)
	retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&RetrievalResult{}, nil)

	answers := new(MockAnswerWriter)
	answers.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	svc := newAnswerService(retriever, nil, nil, answers)

	_, err := svc.Generate(context.Background(), GenerateInput{
		QuestionID:   "q-1",
		QuestionText: "Describe your approach.",
		Scope:        SearchScope{OrgID: "org-1"},
	})

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodePersistence, derr.Code)
}

func TestAnswerService_AdHocQuestionNotPersisted(t *testing.T) {
	retriever := new(MockRetriever)
	retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&RetrievalResult{}, nil)

	answers := new(MockAnswerWriter)

	svc := newAnswerService(retriever, nil, nil, answers)

	_, err := svc.Generate(context.Background(), GenerateInput{
		QuestionText: "Describe your approach.",
		Scope:        SearchScope{OrgID: "org-1"},
	})

	require.NoError(t, err)
	answers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestScoreConfidence(t *testing.T) {
	tests := []struct {
		name      string
		scores    []float32
		answerLen int
		want      float64
		delta     float64
	}{
		{
			name:      "strong retrieval long answer",
			scores:    []float32{0.9, 0.92, 0.88, 0.91, 0.89},
			answerLen: 2000,
			want:      0.94,
			delta:     0.005,
		},
		{
			name:      "three chunks saturated length",
			scores:    []float32{0.9, 0.9, 0.9},
			answerLen: 1500,
			want:      0.6*0.9 + 0.2 + 0.2*0.6,
			delta:     0.001,
		},
		{
			name:      "short answer few weak chunks",
			scores:    []float32{0.6},
			answerLen: 150,
			want:      0.6*0.6 + 0.2*0.1 + 0.2*0.2,
			delta:     0.001,
		},
		{
			name:      "ceiling",
			scores:    []float32{1, 1, 1, 1, 1},
			answerLen: 5000,
			want:      0.95,
			delta:     0,
		},
		{
			name:      "no scores",
			scores:    nil,
			answerLen: 500,
			want:      fallbackConfidenceGeneric,
			delta:     0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreConfidence(tt.scores, tt.answerLen, 1500)
			assert.InDelta(t, tt.want, got, tt.delta)
			assert.GreaterOrEqual(t, got, 0.1)
			assert.LessOrEqual(t, got, 0.95)
		})
	}
}

func TestFallbackAnswer_TemplateSelection(t *testing.T) {
	tests := []struct {
		question string
		contains string
		conf     float64
	}{
		{"Summarize your experience with large accounts.", "extensive experience", fallbackConfidenceMatched},
		{"What is your methodology?", "structured methodology", fallbackConfidenceMatched},
		{"How long will delivery take?", "phased delivery", fallbackConfidenceMatched},
		{"Who will staff the project?", "senior practitioners", fallbackConfidenceMatched},
		{"What will this cost?", "pricing is transparent", fallbackConfidenceMatched},
		{"Where are you headquartered?", "Thank you for your question", fallbackConfidenceGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			text, conf := fallbackAnswer(tt.question)
			assert.Contains(t, text, tt.contains)
			assert.True(t, strings.HasSuffix(text, fallbackNote))
			assert.Equal(t, tt.conf, conf)
		})
	}
}
