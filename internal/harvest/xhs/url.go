package xhs

import (
	"net/url"
	"regexp"
	"strings"

	"favharvest/internal/harvest"
)

var notePathPattern = regexp.MustCompile(`/(?:explore|discovery/item)/([^/?#]+)`)

// ResolveURL claims xiaohongshu note URLs, carrying the share token along
// when the URL has one.
func (c *Client) ResolveURL(rawURL string) (harvest.ItemRef, bool) {
	if !strings.Contains(rawURL, "xiaohongshu.com") {
		return harvest.ItemRef{}, false
	}
	m := notePathPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return harvest.ItemRef{}, false
	}
	ref := harvest.ItemRef{
		Platform: harvest.Xiaohongshu,
		ID:       m[1],
		URL:      rawURL,
		Kind:     harvest.MediaNote,
	}
	if u, err := url.Parse(rawURL); err == nil {
		ref.AccessToken = u.Query().Get("xsec_token")
	}
	return ref, true
}
