package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"tagfeed/internal/domain/entity"
)

// Normalize converts a parsed feed into the canonical item form.
// Missing titles become entity.DefaultTitle, missing links become
// entity.DefaultLink, and missing descriptions become the empty string.
// Descriptions are stripped of HTML markup so fingerprints depend only on
// the text content. Items that repeat an earlier (source, link) pair are
// dropped. An empty feed normalizes to an empty slice, never nil.
func Normalize(parsed *gofeed.Feed) []entity.Item {
	if parsed == nil {
		return []entity.Item{}
	}
	items := make([]entity.Item, 0, len(parsed.Items))

	source := strings.TrimSpace(parsed.Title)

	seen := make(map[string]struct{}, len(parsed.Items))
	for _, it := range parsed.Items {
		if it == nil {
			continue
		}

		title := strings.TrimSpace(it.Title)
		if title == "" {
			title = entity.DefaultTitle
		}

		link := strings.TrimSpace(it.Link)
		if link == "" {
			link = entity.DefaultLink
		}

		key := source + "\x00" + link
		if link != entity.DefaultLink {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}

		items = append(items, entity.Item{
			Title:       title,
			Description: StripHTML(it.Description),
			Link:        link,
			Source:      source,
		})
	}

	return items
}

// StripHTML reduces an HTML fragment to its visible text with whitespace
// collapsed. Plain text passes through unchanged apart from trimming.
func StripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return collapseWhitespace(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseWhitespace(fragment)
	}
	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
