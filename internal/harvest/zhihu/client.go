// Package zhihu implements the favorites client for zhihu's v4 web API:
// collection listings and answer/article body extraction, with a
// page-scrape fallback for the article endpoint's script challenge.
package zhihu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"favharvest/internal/harvest"
)

// apiBase is a var so tests can point the client at a local server.
var apiBase = "https://www.zhihu.com"

// Client talks to the zhihu v4 API with a logged-in session cookie. The
// extractor is only touched when the API refuses an article body.
type Client struct {
	creds     harvest.CredentialFunc
	extractor harvest.StateExtractor // nil = article fallback disabled
}

func New(creds harvest.CredentialFunc, extractor harvest.StateExtractor) *Client {
	return &Client{creds: creds, extractor: extractor}
}

func (c *Client) Platform() harvest.Platform { return harvest.Zhihu }

// apiGet performs one GET against the v4 API. 401 means the session is
// gone; 403 is the anti-crawl layer, which for articles has a fallback.
func (c *Client) apiGet(ctx context.Context, op, url string, out any) error {
	creds, err := c.creds(ctx)
	if err != nil {
		return err
	}
	headers := map[string]string{"Referer": apiBase + "/"}
	err = harvest.GetJSON(ctx, harvest.Zhihu, url, creds.Cookie, headers, out)
	if err == nil {
		return nil
	}
	var statusErr *harvest.HTTPStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Status {
		case 401:
			return &harvest.AuthError{Platform: harvest.Zhihu, Reason: "session expired"}
		case 403:
			harvest.IncrBlocked()
			return &harvest.BlockedError{Platform: harvest.Zhihu, Status: 403}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

type meData struct {
	ID       string `json:"id"`
	URLToken string `json:"url_token"`
	Name     string `json:"name"`
}

// Identify fetches the authenticated profile. Account.ID is the url_token
// used by people-scoped endpoints, falling back to the numeric id.
func (c *Client) Identify(ctx context.Context) (*harvest.Account, error) {
	harvest.IncrIdentify()
	var me meData
	if err := c.apiGet(ctx, "identify", apiBase+"/api/v4/me", &me); err != nil {
		return nil, err
	}
	id := me.URLToken
	if id == "" {
		id = me.ID
	}
	if id == "" {
		return nil, &harvest.AuthError{Platform: harvest.Zhihu, Reason: "anonymous session"}
	}
	slog.Debug("zhihu: identified", "user", id)
	return &harvest.Account{Platform: harvest.Zhihu, ID: id, Name: me.Name}, nil
}

// paging is the cursor block every v4 list response carries.
type paging struct {
	IsEnd bool `json:"is_end"`
}
