package service

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rfpworks/rfpworks/internal/domain"
)

// DocumentTypeRule maps question keywords to the document types most likely
// to answer that kind of question.
type DocumentTypeRule struct {
	Name          string   `yaml:"name"`
	Keywords      []string `yaml:"keywords"`
	DocumentTypes []string `yaml:"document_types"`
}

// TagRule maps question keywords to a single metadata tag.
type TagRule struct {
	Tag      string   `yaml:"tag"`
	Keywords []string `yaml:"keywords"`
}

// RuleSet is the full keyword table driving filter analysis. Rules are
// evaluated in order and the first match in each group wins.
type RuleSet struct {
	DocumentTypes      []DocumentTypeRule `yaml:"document_types"`
	Industries         []TagRule          `yaml:"industries"`
	Capabilities       []TagRule          `yaml:"capabilities"`
	ComplexityKeywords []string           `yaml:"complexity_keywords"`
}

// DefaultRuleSet returns the built-in keyword table.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		DocumentTypes: []DocumentTypeRule{
			{
				Name:          "experience",
				Keywords:      []string{"experience", "track record", "past project", "previous", "portfolio"},
				DocumentTypes: []string{string(domain.DocumentTypeCaseStudy), string(domain.DocumentTypeCompanyProfile)},
			},
			{
				Name:          "team",
				Keywords:      []string{"team", "staff", "personnel", "qualification", "resume"},
				DocumentTypes: []string{string(domain.DocumentTypeTeamBios), string(domain.DocumentTypeCompanyProfile)},
			},
			{
				Name:          "technical",
				Keywords:      []string{"technical", "technology", "architecture", "specification", "infrastructure"},
				DocumentTypes: []string{string(domain.DocumentTypeTechnicalSpecs), string(domain.DocumentTypeMethodology)},
			},
			{
				Name:          "cost",
				Keywords:      []string{"cost", "price", "pricing", "budget", "rate"},
				DocumentTypes: []string{string(domain.DocumentTypePricingTemplates), string(domain.DocumentTypeCaseStudy)},
			},
			{
				Name:          "approach",
				Keywords:      []string{"approach", "methodology", "process", "framework"},
				DocumentTypes: []string{string(domain.DocumentTypeMethodology), string(domain.DocumentTypeCaseStudy)},
			},
			{
				Name:          "compliance",
				Keywords:      []string{"certification", "compliance", "standard", "iso", "hipaa", "sox"},
				DocumentTypes: []string{string(domain.DocumentTypeCertifications), string(domain.DocumentTypeCompanyProfile)},
			},
		},
		Industries: []TagRule{
			{Tag: "healthcare", Keywords: []string{"healthcare", "medical", "hospital", "patient"}},
			{Tag: "finance", Keywords: []string{"financial", "banking", "fintech", "payment"}},
			{Tag: "government", Keywords: []string{"government", "federal", "public sector", "municipal"}},
			{Tag: "manufacturing", Keywords: []string{"manufacturing", "production", "supply chain", "factory"}},
		},
		Capabilities: []TagRule{
			{Tag: "cloud_migration", Keywords: []string{"cloud", "aws", "azure", "migration"}},
			{Tag: "data_analytics", Keywords: []string{"analytics", "reporting", "dashboard", "data warehouse"}},
			{Tag: "cybersecurity", Keywords: []string{"security", "cybersecurity", "encryption", "vulnerability"}},
			{Tag: "ai_ml", Keywords: []string{"machine learning", "artificial intelligence", "llm", "predictive model"}},
			{Tag: "integration", Keywords: []string{"integration", "api", "interoperab", "middleware"}},
			{Tag: "mobile_development", Keywords: []string{"mobile", "ios", "android", "app store"}},
		},
		ComplexityKeywords: []string{"complex", "enterprise", "large-scale", "mission-critical", "strategic"},
	}
}

// LoadRuleSet reads a rule table from a YAML file. Groups absent from the
// file fall back to the built-in defaults so a partial override stays usable.
func LoadRuleSet(path string) (RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read filter rules: %w", err)
	}

	var rules RuleSet
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return RuleSet{}, fmt.Errorf("parse filter rules: %w", err)
	}

	defaults := DefaultRuleSet()
	if len(rules.DocumentTypes) == 0 {
		rules.DocumentTypes = defaults.DocumentTypes
	}
	if len(rules.Industries) == 0 {
		rules.Industries = defaults.Industries
	}
	if len(rules.Capabilities) == 0 {
		rules.Capabilities = defaults.Capabilities
	}
	if len(rules.ComplexityKeywords) == 0 {
		rules.ComplexityKeywords = defaults.ComplexityKeywords
	}
	return rules, nil
}

// FilterAnalyzer derives retrieval predicates from question text. Analysis
// is a pure function of the question and the rule table: the same question
// always produces the same filter, and an unmatched question produces an
// empty one.
type FilterAnalyzer struct {
	rules RuleSet
}

// NewFilterAnalyzer returns an analyzer using the built-in rule table.
func NewFilterAnalyzer() *FilterAnalyzer {
	return &FilterAnalyzer{rules: DefaultRuleSet()}
}

// NewFilterAnalyzerWithRules returns an analyzer using a custom rule table.
func NewFilterAnalyzerWithRules(rules RuleSet) *FilterAnalyzer {
	return &FilterAnalyzer{rules: rules}
}

// Analyze inspects the question and returns a filter narrowing retrieval to
// the document types, industries, and capabilities it mentions.
func (a *FilterAnalyzer) Analyze(question string) domain.RetrievalFilter {
	q := strings.ToLower(question)
	var filter domain.RetrievalFilter

	for _, rule := range a.rules.DocumentTypes {
		if containsAny(q, rule.Keywords) {
			for _, dt := range rule.DocumentTypes {
				filter.DocumentTypes = append(filter.DocumentTypes, domain.DocumentType(dt))
			}
			break
		}
	}
	for _, rule := range a.rules.Industries {
		if containsAny(q, rule.Keywords) {
			filter.IndustryTags = []string{rule.Tag}
			break
		}
	}
	for _, rule := range a.rules.Capabilities {
		if containsAny(q, rule.Keywords) {
			filter.CapabilityTags = []string{rule.Tag}
			break
		}
	}
	if containsAny(q, a.rules.ComplexityKeywords) {
		filter.ConfidenceLevel = domain.ConfidenceHigh
	}
	return filter
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
