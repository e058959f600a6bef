package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentTypeConstants(t *testing.T) {
	tests := []struct {
		name     string
		typeVal  DocumentType
		expected string
	}{
		{"CaseStudy", DocumentTypeCaseStudy, "case_study"},
		{"CompanyProfile", DocumentTypeCompanyProfile, "company_profile"},
		{"TeamBios", DocumentTypeTeamBios, "team_bios"},
		{"TechnicalSpecs", DocumentTypeTechnicalSpecs, "technical_specs"},
		{"Methodology", DocumentTypeMethodology, "methodology"},
		{"PricingTemplates", DocumentTypePricingTemplates, "pricing_templates"},
		{"Certifications", DocumentTypeCertifications, "certifications"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.typeVal))
			assert.True(t, IsValidDocumentType(tt.typeVal))
		})
	}

	assert.False(t, IsValidDocumentType("press_release"))
}

func TestConfidenceLevelConstants(t *testing.T) {
	assert.True(t, IsValidConfidenceLevel(ConfidenceHigh))
	assert.True(t, IsValidConfidenceLevel(ConfidenceMedium))
	assert.True(t, IsValidConfidenceLevel(ConfidenceLow))
	assert.False(t, IsValidConfidenceLevel("certain"))
}

func TestChunkPointID(t *testing.T) {
	assert.Equal(t, "doc-1_0", ChunkPointID("doc-1", 0))
	assert.Equal(t, "doc-1_17", ChunkPointID("doc-1", 17))
}

func TestValidateKnowledgeChunk(t *testing.T) {
	valid := func() *KnowledgeChunk {
		return &KnowledgeChunk{
			ID:         ChunkPointID("doc-1", 0),
			DocumentID: "doc-1",
			OrgID:      "org-1",
			ChunkIndex: 0,
			Content:    "Some chunk content.",
			Metadata: ChunkMetadata{
				Filename:        "profile.pdf",
				DocumentType:    DocumentTypeCompanyProfile,
				ConfidenceLevel: ConfidenceHigh,
				IsActive:        true,
				UploadDate:      time.Now().UTC(),
			},
		}
	}

	t.Run("valid chunk", func(t *testing.T) {
		require.NoError(t, ValidateKnowledgeChunk(valid()))
	})

	t.Run("nil chunk", func(t *testing.T) {
		assert.Error(t, ValidateKnowledgeChunk(nil))
	})

	t.Run("missing document id", func(t *testing.T) {
		c := valid()
		c.DocumentID = ""
		assert.Error(t, ValidateKnowledgeChunk(c))
	})

	t.Run("missing org id", func(t *testing.T) {
		c := valid()
		c.OrgID = ""
		assert.Error(t, ValidateKnowledgeChunk(c))
	})

	t.Run("negative chunk index", func(t *testing.T) {
		c := valid()
		c.ChunkIndex = -1
		assert.Error(t, ValidateKnowledgeChunk(c))
	})

	t.Run("empty content", func(t *testing.T) {
		c := valid()
		c.Content = ""
		assert.Error(t, ValidateKnowledgeChunk(c))
	})

	t.Run("bad confidence level", func(t *testing.T) {
		c := valid()
		c.Metadata.ConfidenceLevel = "sure"
		assert.Error(t, ValidateKnowledgeChunk(c))
	})
}
