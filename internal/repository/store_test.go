//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpworks/rfpworks/internal/domain"
	"github.com/rfpworks/rfpworks/internal/service"
	"github.com/rfpworks/rfpworks/internal/testutil"
)

func TestVectorStore_ReplaceAndSearch(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewVectorStore(pool)

	require.NoError(t, store.ReplaceDocumentChunks(ctx, "doc-1", []domain.KnowledgeChunk{
		testChunk("doc-1", "org-1", 0, testEmbedding(1.0)),
		testChunk("doc-1", "org-1", 1, testEmbedding(0.5)),
	}))

	results, err := store.Search(ctx, testEmbedding(1.0), service.SearchScope{OrgID: "org-1"}, domain.RetrievalFilter{}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	stats, err := store.Stats(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 2, stats.Chunks)

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))
	stats, err = store.Stats(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Chunks)
}

func TestAnswerStore_CreateCommitsSourcesTogether(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewAnswerStore(pool)

	a := &domain.GeneratedAnswer{
		ID:          uuid.NewString(),
		QuestionID:  "q-1",
		Text:        "Our delivery teams are cross-functional and senior-led.",
		Confidence:  0.81,
		GeneratedAt: time.Now().UTC().Truncate(time.Microsecond),
		Sources: []domain.Source{
			{FileName: "bios.pdf", ChunkRef: "doc-3_1", RelevancePercent: 90, TextExcerpt: "team bios"},
		},
	}
	require.NoError(t, store.Create(ctx, a))

	retrieved, err := store.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, retrieved.Sources, 1)
	assert.Equal(t, "bios.pdf", retrieved.Sources[0].FileName)

	page, err := store.ListByQuestion(ctx, "q-1", nil, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, a.ID, page.Items[0].ID)
}
