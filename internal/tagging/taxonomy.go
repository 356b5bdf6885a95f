// Package tagging provides tag post-processing for classifier output:
// validation, deduplication, keyword fallback against a static taxonomy,
// and subcategory assignment.
package tagging

// Taxonomy maps a category name to the keywords that identify it.
// It is loaded once at process start and never mutated afterwards, so it is
// safe for concurrent readers without synchronization.
type Taxonomy map[string][]string

// UncategorizedBucket collects tags that match no taxonomy keyword.
const UncategorizedBucket = "Uncategorized"

// GenericTag is assigned when neither the classifier nor the keyword
// fallback produced a usable tag.
const GenericTag = "General"

// DefaultTaxonomy returns the built-in tag category taxonomy.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		"Security": {"security", "vulnerability", "hack", "malware", "privacy", "encryption", "cyber"},
		"Software": {
			"software", "application", "app", "platform",
			"framework", "library", "toolkit", "sdk",
			"open source", "github", "repository",
			"version", "release", "update", "patch",
			"backend", "frontend", "fullstack",
			"debugging", "testing", "deployment",
		},
		"Development":    {"programming", "code", "development", "api", "web", "scripting", "coding"},
		"Hardware":       {"hardware", "chip", "computer", "device", "server", "network", "router", "iot"},
		"Technology":     {"tech", "digital", "mobile", "app", "innovation", "system"},
		"AI & Data":      {"ai", "machine learning", "data", "analytics", "model", "algorithm"},
		"Business":       {"business", "company", "market", "startup", "industry", "enterprise"},
		"Legal & Policy": {"law", "policy", "regulation", "compliance", "legal"},
		"Research":       {"research", "study", "analysis", "paper", "science", "academic"},
	}
}
