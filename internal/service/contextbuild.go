package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/rfpworks/rfpworks/internal/domain"
)

// NoContextMarker replaces the context block when retrieval produced
// nothing usable, so the prompt never carries an ambiguous empty string.
const NoContextMarker = "No relevant documents found."

// DefaultMaxContextLength bounds the assembled context in characters.
const DefaultMaxContextLength = 6000

const sourceExcerptChars = 200

// AssembledContext is the bounded prompt context built from scored chunks,
// with per-chunk provenance preserved for citation.
type AssembledContext struct {
	Text        string
	TotalLength int
	ChunksUsed  int
	Scores      []float32
	Sources     []domain.Source
}

// Empty reports whether no chunk made it into the context.
func (c *AssembledContext) Empty() bool {
	return c.ChunksUsed == 0
}

// ContextAssembler merges top-scoring chunks into a single bounded context
// string for the synthesizer.
type ContextAssembler struct {
	maxLength int
}

// NewContextAssembler creates an assembler with the given character budget.
func NewContextAssembler(maxLength int) *ContextAssembler {
	if maxLength <= 0 {
		maxLength = DefaultMaxContextLength
	}
	return &ContextAssembler{maxLength: maxLength}
}

// Assemble formats chunks into labeled blocks, in the given order, until the
// next whole block would exceed the budget. A block never enters partially.
func (a *ContextAssembler) Assemble(chunks []*ScoredChunk) *AssembledContext {
	empty := &AssembledContext{Text: NoContextMarker, TotalLength: len(NoContextMarker)}
	if len(chunks) == 0 {
		return empty
	}

	var b strings.Builder
	out := &AssembledContext{}
	for i, sc := range chunks {
		block := formatContextBlock(i+1, sc)
		cost := len(block)
		if b.Len() > 0 {
			cost += 2
		}
		if b.Len()+cost > a.maxLength {
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block)
		out.ChunksUsed++
		out.Scores = append(out.Scores, sc.Score)
		out.Sources = append(out.Sources, sourceFromChunk(sc))
	}
	if out.ChunksUsed == 0 {
		return empty
	}
	out.Text = b.String()
	out.TotalLength = b.Len()
	return out
}

func formatContextBlock(n int, sc *ScoredChunk) string {
	m := sc.Chunk.Metadata
	lines := []string{
		fmt.Sprintf("=== CHUNK %d ===", n),
		fmt.Sprintf("Relevance score: %.3f", sc.Score),
		fmt.Sprintf("Source: %s", displayFilename(m.Filename)),
	}
	if m.DocumentType != "" {
		lines = append(lines, fmt.Sprintf("Document type: %s", m.DocumentType))
	}
	if len(m.IndustryTags) > 0 {
		lines = append(lines, "Industries: "+strings.Join(m.IndustryTags, ", "))
	}
	if len(m.CapabilityTags) > 0 {
		lines = append(lines, "Capabilities: "+strings.Join(m.CapabilityTags, ", "))
	}
	lines = append(lines, "Content:", sc.Chunk.Content)
	return strings.Join(lines, "\n")
}

func sourceFromChunk(sc *ScoredChunk) domain.Source {
	excerpt := sc.Chunk.Content
	if runes := []rune(excerpt); len(runes) > sourceExcerptChars {
		excerpt = string(runes[:sourceExcerptChars]) + "..."
	}
	return domain.Source{
		FileName:         displayFilename(sc.Chunk.Metadata.Filename),
		ChunkRef:         sc.Chunk.ID,
		RelevancePercent: int(math.Round(float64(sc.Score) * 100)),
		TextExcerpt:      excerpt,
	}
}

func displayFilename(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}
