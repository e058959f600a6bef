package domain

import (
	"fmt"
	"strings"
	"time"
)

// Question is an RFP question extracted upstream and stored relationally.
// This pipeline only reads its text and scoping ids.
type Question struct {
	ID        string
	OrgID     string
	ProjectID string
	Text      string
	Section   string
	CreatedAt time.Time
}

// Source attributes part of a generated answer to an indexed chunk.
type Source struct {
	FileName         string
	ChunkRef         string
	RelevancePercent int
	TextExcerpt      string
}

// GeneratedAnswer is the stored result of one answer-generation request.
// Answers are immutable: regenerating an answer for the same question
// inserts a new record.
type GeneratedAnswer struct {
	ID          string
	QuestionID  string
	Text        string
	Confidence  float64
	Sources     []Source
	GeneratedAt time.Time
}

// ValidateGeneratedAnswer validates a GeneratedAnswer instance
func ValidateGeneratedAnswer(a *GeneratedAnswer) error {
	if a == nil {
		return fmt.Errorf("answer cannot be nil")
	}
	if a.ID == "" {
		return fmt.Errorf("answer ID is required")
	}
	if a.QuestionID == "" {
		return fmt.Errorf("answer QuestionID is required")
	}
	if strings.TrimSpace(a.Text) == "" {
		return fmt.Errorf("answer Text is required")
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("answer Confidence must be in [0,1], got %f", a.Confidence)
	}
	return nil
}
