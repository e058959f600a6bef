package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfpworks/rfpworks/internal/domain"
)

func scoredChunk(id, content string, score float32) *ScoredChunk {
	return &ScoredChunk{
		Chunk: domain.KnowledgeChunk{
			ID:      id,
			Content: content,
			Metadata: domain.ChunkMetadata{
				Filename:     "case_studies.pdf",
				DocumentType: domain.DocumentTypeCaseStudy,
				IndustryTags: []string{"healthcare"},
			},
		},
		Score: score,
	}
}

func TestContextAssembler_EmptyInput(t *testing.T) {
	got := NewContextAssembler(6000).Assemble(nil)

	assert.True(t, got.Empty())
	assert.Equal(t, NoContextMarker, got.Text)
	assert.Empty(t, got.Sources)
}

func TestContextAssembler_FormatsBlocks(t *testing.T) {
	chunks := []*ScoredChunk{
		scoredChunk("doc-1_0", "We delivered a cloud migration for a hospital network.", 0.91),
		scoredChunk("doc-1_1", "The rollout completed in nine months with zero downtime.", 0.84),
	}

	got := NewContextAssembler(6000).Assemble(chunks)

	require.Equal(t, 2, got.ChunksUsed)
	assert.Contains(t, got.Text, "=== CHUNK 1 ===")
	assert.Contains(t, got.Text, "=== CHUNK 2 ===")
	assert.Contains(t, got.Text, "Relevance score: 0.910")
	assert.Contains(t, got.Text, "Source: case_studies.pdf")
	assert.Contains(t, got.Text, "Document type: case_study")
	assert.Contains(t, got.Text, "Industries: healthcare")
	assert.Contains(t, got.Text, "We delivered a cloud migration")
	assert.Equal(t, len(got.Text), got.TotalLength)
}

func TestContextAssembler_BudgetExcludesWholeBlocks(t *testing.T) {
	big := strings.Repeat("详细 case study content. ", 40)
	chunks := []*ScoredChunk{
		scoredChunk("doc-1_0", big, 0.9),
		scoredChunk("doc-1_1", big, 0.8),
		scoredChunk("doc-1_2", big, 0.7),
	}

	// Budget fits roughly one block; later blocks must be dropped entirely,
	// never truncated.
	got := NewContextAssembler(1400).Assemble(chunks)

	require.Equal(t, 1, got.ChunksUsed)
	assert.LessOrEqual(t, got.TotalLength, 1400)
	assert.Equal(t, 1, strings.Count(got.Text, "=== CHUNK"))
	assert.NotContains(t, got.Text, "=== CHUNK 2 ===")
}

func TestContextAssembler_FirstBlockTooLarge(t *testing.T) {
	chunks := []*ScoredChunk{
		scoredChunk("doc-1_0", strings.Repeat("x", 5000), 0.9),
	}

	got := NewContextAssembler(500).Assemble(chunks)

	assert.True(t, got.Empty())
	assert.Equal(t, NoContextMarker, got.Text)
}

func TestContextAssembler_SourceAttribution(t *testing.T) {
	long := strings.Repeat("abcde ", 50) // 300 chars
	chunks := []*ScoredChunk{scoredChunk("doc-7_3", long, 0.873)}

	got := NewContextAssembler(6000).Assemble(chunks)

	require.Len(t, got.Sources, 1)
	src := got.Sources[0]
	assert.Equal(t, "case_studies.pdf", src.FileName)
	assert.Equal(t, "doc-7_3", src.ChunkRef)
	assert.Equal(t, 87, src.RelevancePercent)
	assert.Equal(t, long[:200]+"...", src.TextExcerpt)
}

func TestContextAssembler_UnknownFilename(t *testing.T) {
	c := scoredChunk("doc-1_0", "content", 0.8)
	c.Chunk.Metadata.Filename = ""

	got := NewContextAssembler(6000).Assemble([]*ScoredChunk{c})

	require.Len(t, got.Sources, 1)
	assert.Equal(t, "Unknown", got.Sources[0].FileName)
	assert.Contains(t, got.Text, "Source: Unknown")
}

func TestContextAssembler_PreservesOrderAndScores(t *testing.T) {
	chunks := []*ScoredChunk{
		scoredChunk("a_0", "first", 0.95),
		scoredChunk("b_0", "second", 0.80),
		scoredChunk("c_0", "third", 0.65),
	}

	got := NewContextAssembler(6000).Assemble(chunks)

	require.Equal(t, 3, got.ChunksUsed)
	assert.Equal(t, []float32{0.95, 0.80, 0.65}, got.Scores)
	assert.Less(t, strings.Index(got.Text, "first"), strings.Index(got.Text, "second"))
	assert.Less(t, strings.Index(got.Text, "second"), strings.Index(got.Text, "third"))
}
