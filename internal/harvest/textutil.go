package harvest

import (
	"fmt"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// HTMLToText extracts visible text from an HTML fragment: script/style
// removed, text nodes joined, whitespace collapsed.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return CollapseWhitespace(html)
	}
	doc.Find("script, style, noscript").Remove()
	return CollapseWhitespace(doc.Text())
}

// HTMLToMarkdown converts an HTML fragment to markdown. Returns "" when the
// fragment is empty or conversion fails; callers treat markdown as optional.
func HTMLToMarkdown(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(md)
}

// ExtractReadable runs readability over a full HTML page and returns the
// article title and body text. Used when no known content selector matches.
func ExtractReadable(html, pageURL string) (title, text string, err error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		return "", "", fmt.Errorf("readability: %w", err)
	}
	return article.Title, CollapseWhitespace(article.TextContent), nil
}

// CollapseWhitespace squeezes runs of whitespace to single spaces while
// keeping blank-line paragraph breaks.
func CollapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, para := range strings.Split(s, "\n\n") {
		fields := strings.Fields(para)
		if len(fields) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.Join(fields, " "))
	}
	return b.String()
}

// FlattenFragments joins timed caption lines into one text block. With
// timestamps each line is prefixed [MM:SS] from the fragment start.
func FlattenFragments(frags []Fragment, timestamps bool) string {
	lines := make([]string, 0, len(frags))
	for _, f := range frags {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			continue
		}
		if timestamps {
			text = FormatTimestamp(f.From) + " " + text
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

// FormatTimestamp renders seconds as [MM:SS], minutes unbounded.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("[%02d:%02d]", total/60, total%60)
}
