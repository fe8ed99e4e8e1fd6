package zhihu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"favharvest/internal/harvest"
)

// FetchContent resolves an answer or article to its body text. Answers come
// straight from the API. Articles are tried through the API first; when the
// script challenge blocks that endpoint, the column page itself still
// renders the body server-side, so the extractor reads it from HTML.
func (c *Client) FetchContent(ctx context.Context, ref harvest.ItemRef, opts harvest.ContentOptions) (*harvest.ContentRecord, error) {
	harvest.IncrContent()
	kind, num, err := refItemID(ref)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "answer":
		return c.fetchAnswer(ctx, num)
	case "article":
		rec, err := c.fetchArticle(ctx, num)
		var blocked *harvest.BlockedError
		if err != nil && errors.As(err, &blocked) && c.extractor != nil {
			slog.Debug("zhihu: article api blocked, scraping column page", "id", num)
			return c.scrapeArticle(ctx, num)
		}
		if err != nil {
			harvest.IncrContentErr()
		}
		return rec, err
	default:
		return nil, fmt.Errorf("zhihu: unknown content kind %q", kind)
	}
}

func refItemID(ref harvest.ItemRef) (kind, num string, err error) {
	if ref.ID != "" {
		return splitItemID(ref.ID)
	}
	if parsed, ok := parseContentURL(ref.URL); ok {
		return splitItemID(parsed)
	}
	return "", "", &harvest.UnsupportedURLError{URL: ref.URL}
}

type answerData struct {
	Content  string `json:"content"`
	Excerpt  string `json:"excerpt"`
	URL      string `json:"url"`
	Question struct {
		Title string `json:"title"`
	} `json:"question"`
	Author struct {
		Name string `json:"name"`
	} `json:"author"`
}

func (c *Client) fetchAnswer(ctx context.Context, id string) (*harvest.ContentRecord, error) {
	url := apiBase + "/api/v4/answers/" + id + "?include=content,excerpt,created_time,updated_time,question,title,author,url"
	var answer answerData
	if err := c.apiGet(ctx, "fetch answer", url, &answer); err != nil {
		harvest.IncrContentErr()
		return nil, err
	}
	return contentRecord("answer:"+id, answer.Question.Title, answer.URL, answer.Author.Name, answer.Content), nil
}

type articleData struct {
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Author  struct {
		Name string `json:"name"`
	} `json:"author"`
}

func (c *Client) fetchArticle(ctx context.Context, id string) (*harvest.ContentRecord, error) {
	url := apiBase + "/api/v4/articles/" + id + "?include=content,excerpt,created,updated,title,author,url"
	var article articleData
	if err := c.apiGet(ctx, "fetch article", url, &article); err != nil {
		return nil, err
	}
	return contentRecord("article:"+id, article.Title, article.URL, article.Author.Name, article.Content), nil
}

// articleSelectors are tried in order against the column page; the first
// match is taken as the body.
var articleSelectors = []string{"div.Post-RichText", "div.RichText.ztext", "div.RichText"}

func (c *Client) scrapeArticle(ctx context.Context, id string) (*harvest.ContentRecord, error) {
	harvest.IncrPageScrape()
	creds, err := c.creds(ctx)
	if err != nil {
		return nil, err
	}
	pageURL := "https://zhuanlan.zhihu.com/p/" + id
	html, err := c.extractor.FetchPage(ctx, pageURL, creds.Cookie)
	if err != nil {
		harvest.IncrContentErr()
		return nil, fmt.Errorf("scrape article page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return nil, fmt.Errorf("parse article page: %w", err)
	}
	title := strings.TrimSpace(doc.Find("h1.Post-Title").First().Text())
	for _, selector := range articleSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		body, _ := goquery.OuterHtml(sel)
		rec := contentRecord("article:"+id, title, pageURL, "", body)
		if rec.Text != "" {
			return rec, nil
		}
	}

	// No known selector matched; let readability have a go at the page.
	rTitle, rText, err := harvest.ExtractReadable(string(html), pageURL)
	if err != nil || rText == "" {
		harvest.IncrContentErr()
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Zhihu, Op: "scrape article", Detail: "no article body in page"}
	}
	if title == "" {
		title = rTitle
	}
	return &harvest.ContentRecord{
		Platform: harvest.Zhihu,
		ItemID:   "article:" + id,
		Title:    title,
		URL:      pageURL,
		Text:     rText,
		Method:   harvest.MethodArticleBody,
	}, nil
}

// contentRecord normalizes an HTML body into a record. An empty body is a
// valid none-available record.
func contentRecord(itemID, title, url, author, html string) *harvest.ContentRecord {
	text := harvest.HTMLToText(html)
	rec := &harvest.ContentRecord{
		Platform: harvest.Zhihu,
		ItemID:   itemID,
		Title:    title,
		URL:      url,
		Author:   author,
		Text:     text,
		Method:   harvest.MethodArticleBody,
	}
	if text == "" {
		rec.Method = harvest.MethodNoneAvailable
		return rec
	}
	rec.Markdown = harvest.HTMLToMarkdown(html)
	return rec
}
