package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rfpworks/rfpworks/internal/domain"
)

// MockVectorIndex is a mock implementation of VectorIndex.
type MockVectorIndex struct {
	mock.Mock
}

func (m *MockVectorIndex) ReplaceDocumentChunks(ctx context.Context, documentID string, chunks []domain.KnowledgeChunk) error {
	args := m.Called(ctx, documentID, chunks)
	return args.Error(0)
}

func (m *MockVectorIndex) Search(ctx context.Context, embedding []float32, scope SearchScope, filter domain.RetrievalFilter, limit int) ([]*ScoredChunk, error) {
	args := m.Called(ctx, embedding, scope, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ScoredChunk), args.Error(1)
}

func (m *MockVectorIndex) DeleteDocument(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

func (m *MockVectorIndex) Stats(ctx context.Context, orgID string) (*IndexStats, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*IndexStats), args.Error(1)
}

// MockRetriever is a mock implementation of Retriever.
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, query string, scope SearchScope, filter domain.RetrievalFilter, topK int) (*RetrievalResult, error) {
	args := m.Called(ctx, query, scope, filter, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RetrievalResult), args.Error(1)
}

// MockEmbeddingClient is a mock implementation of EmbeddingClient.
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockCompletionClient is a mock implementation of CompletionClient.
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) GenerateCompletion(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt, temperature)
	return args.String(0), args.Error(1)
}

// MockQuestionGetter is a mock implementation of QuestionGetter.
type MockQuestionGetter struct {
	mock.Mock
}

func (m *MockQuestionGetter) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Question), args.Error(1)
}

// MockAnswerWriter is a mock implementation of AnswerWriter.
type MockAnswerWriter struct {
	mock.Mock
}

func (m *MockAnswerWriter) Create(ctx context.Context, answer *domain.GeneratedAnswer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}
