// Package xhs implements the favorites client for xiaohongshu. The site has
// no stable JSON API for the web; every operation reads the hydrated
// window.__INITIAL_STATE__ object the server renders into each page.
package xhs

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"

	"favharvest/internal/harvest"
)

// siteBase is a var so tests can point the client at a local server.
var siteBase = "https://www.xiaohongshu.com"

// Client reads xiaohongshu page state through a TLS-fingerprinting fetcher.
type Client struct {
	creds     harvest.CredentialFunc
	extractor harvest.StateExtractor
}

func New(creds harvest.CredentialFunc, extractor harvest.StateExtractor) *Client {
	return &Client{creds: creds, extractor: extractor}
}

func (c *Client) Platform() harvest.Platform { return harvest.Xiaohongshu }

// pageState fetches a page and returns both the raw HTML and the embedded
// state, since profile discovery needs the hrefs too.
func (c *Client) pageState(ctx context.Context, pageURL string) (html []byte, state json.RawMessage, err error) {
	creds, err := c.creds(ctx)
	if err != nil {
		return nil, nil, err
	}
	harvest.IncrPageScrape()
	html, err = c.extractor.FetchPage(ctx, pageURL, creds.Cookie)
	if err != nil {
		return nil, nil, err
	}
	state, _ = harvest.ParseInitialState(html)
	return html, state, nil
}

var profileHrefPattern = regexp.MustCompile(`/user/profile/([0-9a-f]{8,})`)

// Identify discovers the logged-in profile id from the explore page: the
// header links to the account's own profile. An anonymous session renders
// no such link.
func (c *Client) Identify(ctx context.Context) (*harvest.Account, error) {
	harvest.IncrIdentify()
	html, state, err := c.pageState(ctx, siteBase+"/explore")
	if err != nil {
		return nil, err
	}
	m := profileHrefPattern.FindSubmatch(html)
	if m == nil {
		return nil, &harvest.AuthError{Platform: harvest.Xiaohongshu, Reason: "no profile link in page, session looks anonymous"}
	}
	acct := &harvest.Account{Platform: harvest.Xiaohongshu, ID: string(m[1])}
	if name, ok := nicknameFromState(state); ok {
		acct.Name = name
	}
	slog.Debug("xiaohongshu: identified", "user", acct.ID)
	return acct, nil
}

func nicknameFromState(state json.RawMessage) (string, bool) {
	if state == nil {
		return "", false
	}
	var top struct {
		User struct {
			UserInfo json.RawMessage `json:"userInfo"`
		} `json:"user"`
	}
	if err := json.Unmarshal(state, &top); err != nil || top.User.UserInfo == nil {
		return "", false
	}
	var info struct {
		Nickname string `json:"nickname"`
	}
	if err := harvest.RawValue(top.User.UserInfo, &info); err != nil {
		return "", false
	}
	return info.Nickname, info.Nickname != ""
}

// resolveProfile returns accountID or, when empty, the auto-detected one.
func (c *Client) resolveProfile(ctx context.Context, accountID string) (string, error) {
	if accountID != "" {
		return accountID, nil
	}
	acct, err := c.Identify(ctx)
	if err != nil {
		return "", err
	}
	return acct.ID, nil
}
