package feed

import "tagfeed/internal/domain/entity"

type DTO struct {
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Link          string              `json:"link"`
	Source        string              `json:"source"`
	Tags          []string            `json:"tags"`
	Subcategories map[string][]string `json:"subcategories,omitempty"`
}

func toDTOs(items []entity.Item) []DTO {
	out := make([]DTO, 0, len(items))
	for _, it := range items {
		tags := it.Tags
		if tags == nil {
			// Untagged items serialize as [] rather than null.
			tags = []string{}
		}
		out = append(out, DTO{
			Title:         it.Title,
			Description:   it.Description,
			Link:          it.Link,
			Source:        it.Source,
			Tags:          tags,
			Subcategories: it.Subcategories,
		})
	}
	return out
}
