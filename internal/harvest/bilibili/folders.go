package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"favharvest/internal/harvest"
)

type folderInfo struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	MediaCount int    `json:"media_count"`
}

// ListContainers returns the account's favorite folders: the ones it
// created always, plus subscribed collections under FilterAll.
func (c *Client) ListContainers(ctx context.Context, accountID string, filter harvest.KindFilter, limit int) ([]harvest.Container, error) {
	harvest.IncrContainers()
	mid, err := c.resolveMid(ctx, accountID)
	if err != nil {
		return nil, err
	}

	containers, err := c.createdFolders(ctx, mid)
	if err != nil {
		return nil, err
	}
	if filter == harvest.FilterAll {
		collected, err := c.collectedFolders(ctx, mid)
		if err != nil {
			return nil, err
		}
		containers = append(containers, collected...)
	}
	if limit > 0 && len(containers) > limit {
		containers = containers[:limit]
	}
	return containers, nil
}

// createdFolders fetches the account's own folders. The list-all endpoint
// is unpaginated.
func (c *Client) createdFolders(ctx context.Context, mid string) ([]harvest.Container, error) {
	q := url.Values{
		"up_mid":       {mid},
		"type":         {"2"},
		"web_location": {webLocation},
	}
	data, err := c.apiGet(ctx, "list created folders", "/x/v3/fav/folder/created/list-all", q, spaceReferer(mid))
	if err != nil {
		return nil, err
	}
	var payload struct {
		List []folderInfo `json:"list"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Bilibili, Op: "list created folders", Detail: "folder list payload"}
	}
	out := make([]harvest.Container, 0, len(payload.List))
	for _, f := range payload.List {
		out = append(out, toContainer(f, mid, harvest.KindCreated))
	}
	return out, nil
}

// collectedFolders pages through collections the account subscribed to.
func (c *Client) collectedFolders(ctx context.Context, mid string) ([]harvest.Container, error) {
	ps := harvest.Cfg.PageSize
	var out []harvest.Container
	for pn := 1; ; pn++ {
		q := url.Values{
			"up_mid": {mid},
			"pn":     {strconv.Itoa(pn)},
			"ps":     {strconv.Itoa(ps)},
		}
		data, err := c.apiGet(ctx, "list collected folders", "/x/v3/fav/folder/collected/list", q, spaceReferer(mid))
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pn, err)
		}
		var payload struct {
			Count int          `json:"count"`
			List  []folderInfo `json:"list"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, &harvest.UpstreamFormatError{Platform: harvest.Bilibili, Op: "list collected folders", Detail: "folder list payload"}
		}
		for _, f := range payload.List {
			out = append(out, toContainer(f, mid, harvest.KindSubscribed))
		}
		if len(payload.List) < ps || (payload.Count > 0 && len(out) >= payload.Count) {
			return out, nil
		}
	}
}

func toContainer(f folderInfo, mid string, kind harvest.ContainerKind) harvest.Container {
	id := strconv.FormatInt(f.ID, 10)
	return harvest.Container{
		Platform:  harvest.Bilibili,
		ID:        id,
		Name:      f.Title,
		ItemCount: f.MediaCount,
		Kind:      kind,
		URL:       fmt.Sprintf("https://space.bilibili.com/%s/favlist?fid=%s", mid, id),
	}
}

func spaceReferer(mid string) string {
	return "https://space.bilibili.com/" + mid + "/"
}
