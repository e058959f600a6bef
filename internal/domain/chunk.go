package domain

import (
	"fmt"
	"time"
)

// DocumentType classifies a reference document in the knowledge base.
type DocumentType string

const (
	DocumentTypeCaseStudy        DocumentType = "case_study"
	DocumentTypeCompanyProfile   DocumentType = "company_profile"
	DocumentTypeTeamBios         DocumentType = "team_bios"
	DocumentTypeTechnicalSpecs   DocumentType = "technical_specs"
	DocumentTypeMethodology      DocumentType = "methodology"
	DocumentTypePricingTemplates DocumentType = "pricing_templates"
	DocumentTypeCertifications   DocumentType = "certifications"
)

// ConfidenceLevel grades how authoritative a reference document is.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ChunkMetadata is the filterable payload attached to every indexed chunk.
type ChunkMetadata struct {
	Filename        string          `json:"filename"`
	DocumentType    DocumentType    `json:"document_type"`
	IndustryTags    []string        `json:"industry_tags,omitempty"`
	CapabilityTags  []string        `json:"capability_tags,omitempty"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level,omitempty"`
	IsActive        bool            `json:"is_active"`
	UploadDate      time.Time       `json:"upload_date"`
}

// KnowledgeChunk is the unit of embedding and retrieval. Chunks are written
// once when a reference document is indexed and removed as a whole when the
// document is deleted; they are never updated in place.
type KnowledgeChunk struct {
	ID         string
	DocumentID string
	OrgID      string
	ProjectID  string
	ChunkIndex int
	Content    string
	Embedding  []float32
	Metadata   ChunkMetadata
	CreatedAt  time.Time
}

// ChunkPointID builds the stable index key for a chunk, so re-indexing a
// document overwrites its prior points instead of duplicating them.
func ChunkPointID(documentID string, index int) string {
	return fmt.Sprintf("%s_%d", documentID, index)
}

// ValidateKnowledgeChunk validates a KnowledgeChunk instance
func ValidateKnowledgeChunk(c *KnowledgeChunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}
	if c.DocumentID == "" {
		return fmt.Errorf("chunk DocumentID is required")
	}
	if c.OrgID == "" {
		return fmt.Errorf("chunk OrgID is required")
	}
	if c.ChunkIndex < 0 {
		return fmt.Errorf("chunk index cannot be negative")
	}
	if c.Content == "" {
		return fmt.Errorf("chunk Content is required")
	}
	if c.Metadata.ConfidenceLevel != "" && !IsValidConfidenceLevel(c.Metadata.ConfidenceLevel) {
		return fmt.Errorf("chunk confidence level is invalid: %s", c.Metadata.ConfidenceLevel)
	}
	return nil
}

// IsValidDocumentType checks if a DocumentType is one of the known types
func IsValidDocumentType(t DocumentType) bool {
	switch t {
	case DocumentTypeCaseStudy, DocumentTypeCompanyProfile, DocumentTypeTeamBios,
		DocumentTypeTechnicalSpecs, DocumentTypeMethodology,
		DocumentTypePricingTemplates, DocumentTypeCertifications:
		return true
	}
	return false
}

// IsValidConfidenceLevel checks if a ConfidenceLevel is valid
func IsValidConfidenceLevel(l ConfidenceLevel) bool {
	switch l {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}
