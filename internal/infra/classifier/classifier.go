// Package classifier provides AI-powered article tag classification implementations.
// It includes adapters for Claude (Anthropic) and OpenAI APIs with reliability patterns,
// plus a no-op implementation for deployments without an API key.
package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"tagfeed/internal/usecase/enrich"
)

// maxDescriptionChars bounds the per-article text sent to the API so a
// single oversized description cannot blow the token budget for the batch.
const maxDescriptionChars = 500

// buildBatchPrompt constructs the classification prompt for a batch of articles.
// The response contract (JSON array of {"title","tags"} objects) is what
// ParseResponse expects back.
func buildBatchPrompt(items []enrich.BatchInput) string {
	var b strings.Builder
	b.WriteString("Generate 3-5 relevant tags for each of the following articles. ")
	b.WriteString("Each tag must be one or two words. ")
	b.WriteString(`Respond with only a JSON array where each element is an object with "title" and "tags" fields, `)
	b.WriteString("using the exact article titles given.\n\n")

	for i, item := range items {
		desc := item.Description
		if len(desc) > maxDescriptionChars {
			desc = desc[:maxDescriptionChars] + "..."
		}
		fmt.Fprintf(&b, "%d. Title: %s\n   Description: %s\n", i+1, item.Title, desc)
	}
	return b.String()
}

// ParseResponse decodes the model's reply into per-article tag lists.
// Code fences and any prose around the JSON array are tolerated; anything
// without a parseable array is an error so the caller can count the batch
// as failed rather than store garbage.
func ParseResponse(raw string) ([]enrich.ItemTags, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("ParseResponse: no JSON array in response")
	}

	var results []enrich.ItemTags
	if err := json.Unmarshal([]byte(raw[start:end+1]), &results); err != nil {
		return nil, fmt.Errorf("ParseResponse: Unmarshal: %w", err)
	}
	return results, nil
}
