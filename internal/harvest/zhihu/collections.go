package zhihu

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"favharvest/internal/harvest"
)

type collectionInfo struct {
	ID        json.Number `json:"id"`
	Title     string      `json:"title"`
	ItemCount int         `json:"item_count"`
}

// ListContainers pages through the account's collections. Zhihu does not
// separate created from subscribed collections here, so the kind filter is
// a no-op and everything is reported as created.
func (c *Client) ListContainers(ctx context.Context, accountID string, _ harvest.KindFilter, limit int) ([]harvest.Container, error) {
	harvest.IncrContainers()
	if accountID == "" {
		acct, err := c.Identify(ctx)
		if err != nil {
			return nil, err
		}
		accountID = acct.ID
	}

	ps := harvest.Cfg.PageSize
	var out []harvest.Container
	for offset := 0; ; offset += ps {
		url := fmt.Sprintf("%s/api/v4/people/%s/collections?offset=%d&limit=%d", apiBase, accountID, offset, ps)
		var page struct {
			Data   []collectionInfo `json:"data"`
			Paging paging           `json:"paging"`
		}
		if err := c.apiGet(ctx, "list collections", url, &page); err != nil {
			return nil, fmt.Errorf("offset %d: %w", offset, err)
		}
		for _, col := range page.Data {
			out = append(out, harvest.Container{
				Platform:  harvest.Zhihu,
				ID:        col.ID.String(),
				Name:      col.Title,
				ItemCount: col.ItemCount,
				Kind:      harvest.KindCreated,
				URL:       apiBase + "/collection/" + col.ID.String(),
			})
			if limit > 0 && len(out) >= limit {
				return out[:limit], nil
			}
		}
		if page.Paging.IsEnd || len(page.Data) == 0 {
			return out, nil
		}
	}
}

// collectionItem is one saved entry. content.type is answer or article;
// anything else is skipped.
type collectionItem struct {
	Created int64 `json:"created"`
	Content struct {
		Type     string      `json:"type"`
		ID       json.Number `json:"id"`
		URL      string      `json:"url"`
		Title    string      `json:"title"`
		Excerpt  string      `json:"excerpt"`
		Question struct {
			Title string `json:"title"`
		} `json:"question"`
		Author struct {
			Name string `json:"name"`
		} `json:"author"`
	} `json:"content"`
}

// ListItems pages through one collection. Zhihu has no server-side ordering
// for collection items, so opts.Order is rejected when set.
func (c *Client) ListItems(ctx context.Context, containerID string, opts harvest.ListOptions) ([]harvest.Item, error) {
	harvest.IncrItems()
	if opts.Order != "" {
		return nil, fmt.Errorf("zhihu: collections have no server-side ordering (got order %q)", opts.Order)
	}
	ps := opts.PageSize
	if ps <= 0 {
		ps = harvest.Cfg.PageSize
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = harvest.Cfg.ItemLimit
	}

	var out []harvest.Item
	for offset := 0; ; offset += ps {
		url := fmt.Sprintf("%s/api/v4/collections/%s/items?offset=%d&limit=%d", apiBase, containerID, offset, ps)
		var page struct {
			Data   []collectionItem `json:"data"`
			Paging paging           `json:"paging"`
		}
		if err := c.apiGet(ctx, "list collection items", url, &page); err != nil {
			return nil, fmt.Errorf("offset %d: %w", offset, err)
		}
		for _, entry := range page.Data {
			item, ok := toItem(entry, containerID)
			if !ok {
				continue
			}
			out = append(out, item)
			if len(out) >= limit {
				return out, nil
			}
		}
		if page.Paging.IsEnd || len(page.Data) == 0 {
			return out, nil
		}
	}
}

func toItem(entry collectionItem, containerID string) (harvest.Item, bool) {
	content := entry.Content
	var id string
	switch content.Type {
	case "answer":
		id = "answer:" + content.ID.String()
	case "article":
		id = "article:" + content.ID.String()
	default:
		return harvest.Item{}, false
	}
	title := content.Title
	if content.Question.Title != "" {
		title = content.Question.Title
	}
	return harvest.Item{
		Platform:    harvest.Zhihu,
		ContainerID: containerID,
		ID:          id,
		URL:         content.URL,
		Title:       title,
		Author:      content.Author.Name,
		SavedAt:     entry.Created,
		Kind:        harvest.MediaArticle,
	}, true
}

// splitItemID parses an item id of the form answer:123 or article:456.
// A bare number is treated as an answer id.
func splitItemID(id string) (kind, num string, err error) {
	for _, prefix := range []string{"answer:", "article:"} {
		if len(id) > len(prefix) && id[:len(prefix)] == prefix {
			return prefix[:len(prefix)-1], id[len(prefix):], nil
		}
	}
	if _, convErr := strconv.ParseInt(id, 10, 64); convErr == nil {
		return "answer", id, nil
	}
	return "", "", fmt.Errorf("zhihu: malformed item id %q", id)
}
