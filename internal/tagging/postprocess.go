package tagging

import (
	"sort"
	"strings"
)

// minValidTags is the number of surviving tags below which the keyword
// fallback classifier is consulted.
const minValidTags = 2

// Normalize filters raw classifier output down to valid tags: trimmed,
// non-empty, at most two words, deduplicated case-insensitively. The
// original order (the classifier's relevance order) is preserved.
func Normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if len(strings.Fields(tag)) > 2 {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// KeywordFallback classifies content by case-insensitive substring matching
// of taxonomy keywords against the item's title and description. Matched
// category names become the tags, sorted for determinism. An empty result
// means no keyword matched.
func KeywordFallback(tax Taxonomy, title, description string) []string {
	content := strings.ToLower(title + " " + description)

	var tags []string
	for category, keywords := range tax {
		for _, kw := range keywords {
			if strings.Contains(content, kw) {
				tags = append(tags, category)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// Finalize produces the definitive tag list for an item. Classifier output
// is normalized first; if fewer than two valid tags survive, the keyword
// fallback runs against title and description; if that also yields nothing,
// the item receives the single generic tag.
func Finalize(tax Taxonomy, raw []string, title, description string) []string {
	tags := Normalize(raw)
	if len(tags) >= minValidTags {
		return tags
	}

	fallback := KeywordFallback(tax, title, description)
	// Merge, keeping classifier tags first.
	tags = Normalize(append(tags, fallback...))
	if len(tags) > 0 {
		return tags
	}
	return []string{GenericTag}
}

// Subcategories files every tag under the taxonomy keywords it contains.
// A tag matching a keyword of any category is recorded under that keyword;
// tags matching nothing land in the Uncategorized bucket. The returned map
// is keyed by subcategory name with the matching tags as values.
func Subcategories(tax Taxonomy, tags []string) map[string][]string {
	if len(tags) == 0 {
		return nil
	}

	subs := make(map[string][]string)
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		// The same keyword can appear under several categories; file the
		// tag under each matching keyword once.
		matched := make(map[string]struct{})
		for _, keywords := range tax {
			for _, kw := range keywords {
				if _, done := matched[kw]; done {
					continue
				}
				if strings.Contains(lower, kw) {
					subs[kw] = append(subs[kw], tag)
					matched[kw] = struct{}{}
				}
			}
		}
		if len(matched) == 0 {
			subs[UncategorizedBucket] = append(subs[UncategorizedBucket], tag)
		}
	}
	return subs
}
