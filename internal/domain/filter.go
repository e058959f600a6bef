package domain

// RetrievalFilter restricts a similarity search to chunks whose metadata
// matches every set predicate. An unset predicate leaves that dimension
// unfiltered. Within one predicate, matching is set membership.
type RetrievalFilter struct {
	DocumentTypes   []DocumentType
	IndustryTags    []string
	CapabilityTags  []string
	ConfidenceLevel ConfidenceLevel
}

// IsZero reports whether no predicate is set.
func (f RetrievalFilter) IsZero() bool {
	return len(f.DocumentTypes) == 0 &&
		len(f.IndustryTags) == 0 &&
		len(f.CapabilityTags) == 0 &&
		f.ConfidenceLevel == ""
}

// MergeFilters combines an analyzer-derived filter with an explicit caller
// override. The override wins wherever it sets a predicate.
func MergeFilters(base, override RetrievalFilter) RetrievalFilter {
	merged := base
	if len(override.DocumentTypes) > 0 {
		merged.DocumentTypes = override.DocumentTypes
	}
	if len(override.IndustryTags) > 0 {
		merged.IndustryTags = override.IndustryTags
	}
	if len(override.CapabilityTags) > 0 {
		merged.CapabilityTags = override.CapabilityTags
	}
	if override.ConfidenceLevel != "" {
		merged.ConfidenceLevel = override.ConfidenceLevel
	}
	return merged
}
