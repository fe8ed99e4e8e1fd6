package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"favharvest/internal/harvest"
)

// Orders the resource/list endpoint understands. Passed through untouched;
// anything else is rejected before the first request.
var validOrders = map[string]bool{
	"mtime":   true, // by save time, the API default
	"view":    true,
	"pubtime": true,
}

type mediaEntry struct {
	ID      int64  `json:"id"`
	BVID    string `json:"bvid"`
	Title   string `json:"title"`
	Intro   string `json:"intro"`
	Cover   string `json:"cover"`
	FavTime int64  `json:"fav_time"`
	Upper   struct {
		Name string `json:"name"`
	} `json:"upper"`
}

// ListItems pages through one favorite folder in API order until has_more
// turns false, a short page arrives, or the limit is reached.
func (c *Client) ListItems(ctx context.Context, containerID string, opts harvest.ListOptions) ([]harvest.Item, error) {
	harvest.IncrItems()
	order := opts.Order
	if order == "" {
		order = "mtime"
	}
	if !validOrders[order] {
		return nil, fmt.Errorf("bilibili: unknown order %q (want mtime, view or pubtime)", order)
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
	for pn := 1; ; pn++ {
		q := url.Values{
			"media_id":     {containerID},
			"pn":           {strconv.Itoa(pn)},
			"ps":           {strconv.Itoa(ps)},
			"keyword":      {""},
			"order":        {order},
			"type":         {"0"},
			"tid":          {"0"},
			"platform":     {"web"},
			"web_location": {webLocation},
		}
		data, err := c.apiGet(ctx, "list folder items", "/x/v3/fav/resource/list", q, "")
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pn, err)
		}
		var payload struct {
			Medias  []mediaEntry `json:"medias"`
			HasMore bool         `json:"has_more"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, &harvest.UpstreamFormatError{Platform: harvest.Bilibili, Op: "list folder items", Detail: "resource list payload"}
		}
		for _, m := range payload.Medias {
			out = append(out, toItem(m, containerID))
			if len(out) >= limit {
				return out, nil
			}
		}
		if !payload.HasMore || len(payload.Medias) < ps {
			return out, nil
		}
	}
}

func toItem(m mediaEntry, containerID string) harvest.Item {
	id := m.BVID
	itemURL := "https://www.bilibili.com/video/" + m.BVID
	if m.BVID == "" {
		id = "av" + strconv.FormatInt(m.ID, 10)
		itemURL = "https://www.bilibili.com/video/av" + strconv.FormatInt(m.ID, 10)
	}
	return harvest.Item{
		Platform:    harvest.Bilibili,
		ContainerID: containerID,
		ID:          id,
		URL:         itemURL,
		Title:       m.Title,
		Author:      m.Upper.Name,
		SavedAt:     m.FavTime,
		Kind:        harvest.MediaVideo,
	}
}
