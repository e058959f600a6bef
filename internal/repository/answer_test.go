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
	"github.com/rfpworks/rfpworks/internal/pagination"
	"github.com/rfpworks/rfpworks/internal/testutil"
)

func testAnswer(questionID string, generatedAt time.Time) *domain.GeneratedAnswer {
	return &domain.GeneratedAnswer{
		ID:          uuid.NewString(),
		QuestionID:  questionID,
		Text:        "We have delivered comparable projects for three regional providers.",
		Confidence:  0.78,
		GeneratedAt: generatedAt,
	}
}

func TestAnswerRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewAnswerRepository(pool)

	a := testAnswer("q-1", time.Now().UTC().Truncate(time.Microsecond))
	a.Sources = []domain.Source{
		{FileName: "cases.pdf", ChunkRef: "doc-1_0", RelevancePercent: 88, TextExcerpt: "hospital migration"},
		{FileName: "profile.pdf", ChunkRef: "doc-2_3", RelevancePercent: 71, TextExcerpt: "company overview"},
	}
	require.NoError(t, repo.Create(ctx, a))

	retrieved, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, retrieved.ID)
	assert.Equal(t, "q-1", retrieved.QuestionID)
	assert.Equal(t, a.Text, retrieved.Text)
	assert.InDelta(t, 0.78, retrieved.Confidence, 0.0001)
	require.Len(t, retrieved.Sources, 2)
	assert.Equal(t, "cases.pdf", retrieved.Sources[0].FileName)
	assert.Equal(t, "doc-2_3", retrieved.Sources[1].ChunkRef)
}

func TestAnswerRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewAnswerRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrAnswerNotFound)
}

func TestAnswerRepository_Create_Invalid(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewAnswerRepository(pool)

	err := repo.Create(ctx, &domain.GeneratedAnswer{ID: uuid.NewString(), QuestionID: "q-1"})
	assert.Error(t, err)
}

func TestAnswerRepository_ListByQuestion_Pagination(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewAnswerRepository(pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	var created []*domain.GeneratedAnswer
	for i := 0; i < 5; i++ {
		a := testAnswer("q-1", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, repo.Create(ctx, a))
		created = append(created, a)
	}
	// An answer on a different question never leaks in.
	require.NoError(t, repo.Create(ctx, testAnswer("q-2", base)))

	page, err := repo.ListByQuestion(ctx, "q-1", nil, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.Cursor)

	// Newest first.
	assert.Equal(t, created[4].ID, page.Items[0].ID)
	assert.Equal(t, created[3].ID, page.Items[1].ID)

	cursor, err := pagination.DecodeCursor(page.Cursor)
	require.NoError(t, err)

	page2, err := repo.ListByQuestion(ctx, "q-1", cursor, 2)
	require.NoError(t, err)
	require.Len(t, page2.Items, 2)
	assert.Equal(t, created[2].ID, page2.Items[0].ID)
	assert.Equal(t, created[1].ID, page2.Items[1].ID)

	cursor2, err := pagination.DecodeCursor(page2.Cursor)
	require.NoError(t, err)

	page3, err := repo.ListByQuestion(ctx, "q-1", cursor2, 2)
	require.NoError(t, err)
	require.Len(t, page3.Items, 1)
	assert.Equal(t, created[0].ID, page3.Items[0].ID)
	assert.False(t, page3.HasMore)
}

func TestAnswerRepository_ListByQuestion_Empty(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewAnswerRepository(pool)

	page, err := repo.ListByQuestion(ctx, "q-none", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.Cursor)
}
