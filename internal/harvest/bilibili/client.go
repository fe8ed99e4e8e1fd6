// Package bilibili implements the favorites client for bilibili's web API:
// folder listings, saved-video listings, and subtitle-track extraction.
package bilibili

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"favharvest/internal/harvest"
)

// apiBase is a var so tests can point the client at a local server.
var apiBase = "https://api.bilibili.com"

const (
	refererWeb = "https://www.bilibili.com"

	// web_location the first-party player sends; some fav endpoints 412
	// without it.
	webLocation = "333.1387"
)

// Client talks to the bilibili web API with a logged-in session cookie.
type Client struct {
	creds harvest.CredentialFunc
}

func New(creds harvest.CredentialFunc) *Client {
	return &Client{creds: creds}
}

func (c *Client) Platform() harvest.Platform { return harvest.Bilibili }

// envelope is the outer shape of every bilibili API response.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// apiGet performs one envelope-wrapped GET and returns data. Envelope codes
// are mapped to the typed error set: -101 session expired, -352/-412 risk
// control.
func (c *Client) apiGet(ctx context.Context, op, path string, query url.Values, referer string) (json.RawMessage, error) {
	creds, err := c.creds(ctx)
	if err != nil {
		return nil, err
	}
	if referer == "" {
		referer = refererWeb
	}
	headers := map[string]string{"Referer": referer, "Origin": refererWeb}

	endpoint := apiBase + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var env envelope
	if err := harvest.GetJSON(ctx, harvest.Bilibili, endpoint, creds.Cookie, headers, &env); err != nil {
		var statusErr *harvest.HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.Status == 412 {
			harvest.IncrBlocked()
			return nil, &harvest.BlockedError{Platform: harvest.Bilibili, Status: statusErr.Status}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	switch env.Code {
	case 0:
		return env.Data, nil
	case -101:
		return nil, &harvest.AuthError{Platform: harvest.Bilibili, Reason: "session expired"}
	case -352, -412:
		harvest.IncrBlocked()
		return nil, &harvest.BlockedError{Platform: harvest.Bilibili, Status: env.Code, Detail: env.Message}
	default:
		return nil, &harvest.UpstreamFormatError{
			Platform: harvest.Bilibili,
			Op:       op,
			Detail:   fmt.Sprintf("api code %d: %s", env.Code, env.Message),
		}
	}
}

type navData struct {
	IsLogin bool   `json:"isLogin"`
	Mid     int64  `json:"mid"`
	Uname   string `json:"uname"`
}

// Identify confirms the cookie belongs to a logged-in session.
func (c *Client) Identify(ctx context.Context) (*harvest.Account, error) {
	harvest.IncrIdentify()
	data, err := c.apiGet(ctx, "identify", "/x/web-interface/nav", nil, "")
	if err != nil {
		return nil, err
	}
	var nav navData
	if err := json.Unmarshal(data, &nav); err != nil {
		return nil, &harvest.UpstreamFormatError{Platform: harvest.Bilibili, Op: "identify", Detail: "nav payload"}
	}
	if !nav.IsLogin {
		return nil, &harvest.AuthError{Platform: harvest.Bilibili, Reason: "anonymous session"}
	}
	slog.Debug("bilibili: identified", "mid", nav.Mid)
	return &harvest.Account{
		Platform: harvest.Bilibili,
		ID:       strconv.FormatInt(nav.Mid, 10),
		Name:     nav.Uname,
	}, nil
}

// resolveMid returns accountID or, when empty, the authenticated account's mid.
func (c *Client) resolveMid(ctx context.Context, accountID string) (string, error) {
	if accountID != "" {
		return accountID, nil
	}
	acct, err := c.Identify(ctx)
	if err != nil {
		return "", err
	}
	return acct.ID, nil
}
