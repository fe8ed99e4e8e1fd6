package zhihu

import (
	"regexp"
	"strings"

	"favharvest/internal/harvest"
)

// URL shapes the platform exposes for the two content kinds, web and API.
var (
	answerURLPattern     = regexp.MustCompile(`/answer/(\d+)`)
	articleURLPattern    = regexp.MustCompile(`/p/(\d+)`)
	answerAPIURLPattern  = regexp.MustCompile(`/api/v4/answers/(\d+)`)
	articleAPIURLPattern = regexp.MustCompile(`/api/v4/articles/(\d+)`)
)

// parseContentURL maps a zhihu URL to an item id (answer:N or article:N).
func parseContentURL(rawURL string) (string, bool) {
	if m := answerURLPattern.FindStringSubmatch(rawURL); m != nil {
		return "answer:" + m[1], true
	}
	if m := answerAPIURLPattern.FindStringSubmatch(rawURL); m != nil {
		return "answer:" + m[1], true
	}
	if m := articleAPIURLPattern.FindStringSubmatch(rawURL); m != nil {
		return "article:" + m[1], true
	}
	if m := articleURLPattern.FindStringSubmatch(rawURL); m != nil {
		return "article:" + m[1], true
	}
	return "", false
}

// ResolveURL claims zhihu answer and column-article URLs.
func (c *Client) ResolveURL(rawURL string) (harvest.ItemRef, bool) {
	if !strings.Contains(rawURL, "zhihu.com") {
		return harvest.ItemRef{}, false
	}
	id, ok := parseContentURL(rawURL)
	if !ok {
		return harvest.ItemRef{}, false
	}
	return harvest.ItemRef{
		Platform: harvest.Zhihu,
		ID:       id,
		URL:      rawURL,
		Kind:     harvest.MediaArticle,
	}, true
}
