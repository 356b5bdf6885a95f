package worker

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// feedList is the on-disk shape of the warm list:
//
//	feeds:
//	  - https://example.org/rss.xml
//	  - https://example.com/atom.xml
type feedList struct {
	Feeds []string `yaml:"feeds"`
}

// LoadFeedList reads the YAML feed list at path and returns the feed
// URLs in file order. Blank entries are dropped; duplicates are
// collapsed so a repeated URL is not warmed twice per run. An empty
// list is an error, since a worker with nothing to warm is a
// misconfiguration.
func LoadFeedList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFeedList: ReadFile: %w", err)
	}

	var list feedList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("LoadFeedList: Unmarshal %s: %w", path, err)
	}

	seen := make(map[string]bool, len(list.Feeds))
	urls := make([]string, 0, len(list.Feeds))
	for _, raw := range list.Feeds {
		url := strings.TrimSpace(raw)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		urls = append(urls, url)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("LoadFeedList: no feed URLs in %s", path)
	}
	return urls, nil
}
