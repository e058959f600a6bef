package service

import (
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is how many trailing characters each chunk shares
	// with the next one.
	DefaultChunkOverlap = 200
)

// ChunkConfig controls how document text is split before embedding.
type ChunkConfig struct {
	ChunkSize int
	Overlap   int
}

// DefaultChunkConfig returns the chunking parameters used when the caller
// does not override them.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{ChunkSize: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}

// SplitText splits text into overlapping segments of at most cfg.ChunkSize
// characters. When a window's right edge falls inside a word, the cut moves
// back to the nearest sentence terminator, or failing that the nearest
// space, inside the window. Consecutive chunks share cfg.Overlap characters
// so sentences spanning a boundary stay retrievable from both sides.
//
// Text no longer than one window comes back as a single chunk; empty or
// whitespace-only input yields nil.
func SplitText(text string, cfg ChunkConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if cfg.ChunkSize <= 0 {
		cfg = DefaultChunkConfig()
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}

	runes := []rune(clean)
	if len(runes) <= cfg.ChunkSize {
		return []string{clean}
	}

	chunks := make([]string, 0, len(runes)/cfg.ChunkSize+1)
	start := 0
	for start < len(runes) {
		end := start + cfg.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else if !unicode.IsSpace(runes[end-1]) && !unicode.IsSpace(runes[end]) {
			// The window edge splits a word: back up to a boundary.
			if cut := lastBoundary(runes, start, end); cut > start {
				end = cut
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(runes) {
			break
		}

		next := end - cfg.Overlap
		if next <= start {
			// Overlap would stall the scan; advance without it.
			next = end
		}
		start = next
	}
	return chunks
}

// lastBoundary returns the index just past the last sentence terminator in
// runes[start:end], falling back to the last space, or end when the window
// holds neither.
func lastBoundary(runes []rune, start, end int) int {
	for i := end; i > start; i-- {
		if runes[i-1] == '.' {
			return i
		}
	}
	for i := end; i > start; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
