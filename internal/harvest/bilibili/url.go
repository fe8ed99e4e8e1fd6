package bilibili

import (
	"regexp"
	"strings"

	"favharvest/internal/harvest"
)

var bvidPattern = regexp.MustCompile(`BV[0-9A-Za-z]{10,}`)

func extractBVID(s string) (string, bool) {
	m := bvidPattern.FindString(s)
	return m, m != ""
}

// ResolveURL claims bilibili video URLs and bare BV ids. Other bilibili
// pages (articles, spaces) carry no BV id and are not claimable.
func (c *Client) ResolveURL(rawURL string) (harvest.ItemRef, bool) {
	s := strings.TrimSpace(rawURL)
	bvid, hasBV := extractBVID(s)
	if !hasBV {
		return harvest.ItemRef{}, false
	}
	return harvest.ItemRef{
		Platform: harvest.Bilibili,
		ID:       bvid,
		URL:      "https://www.bilibili.com/video/" + bvid,
		Kind:     harvest.MediaVideo,
	}, true
}
