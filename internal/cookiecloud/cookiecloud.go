// Package cookiecloud fetches and decrypts cookie snapshots from a
// CookieCloud server, turning a synced browser session into per-domain
// Cookie headers. Decrypted material stays in memory: nothing is written
// to disk and cookie values never appear in logs or error text.
package cookiecloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"
)

// Config locates the CookieCloud source: either a server (UUID+password)
// or a local snapshot file with the same payload shape.
type Config struct {
	ServerURL string
	UUID      string
	Password  string
	InputFile string // non-empty = read snapshot from file instead of the server
	Timeout   time.Duration
}

// Client retrieves and decrypts one cookie snapshot per call.
type Client struct {
	cfg  Config
	http *http.Client
}

// ErrNotConfigured means neither server credentials nor an input file are set.
var ErrNotConfigured = errors.New("cookiecloud: not configured")

// New builds a client. httpClient may be nil to use a default.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.InputFile == "" && (cfg.UUID == "" || cfg.Password == "") {
		return nil, ErrNotConfigured
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://127.0.0.1:8088"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient}, nil
}

// Cookie is one browser cookie from the synced snapshot.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path,omitempty"`
}

// Snapshot is the decrypted cookie store, keyed by the domain the browser
// extension grouped cookies under.
type Snapshot struct {
	CookieData map[string][]Cookie `json:"cookie_data"`
}

// Fetch retrieves the snapshot from the configured source and decrypts it.
// One attempt; failures are returned, not retried.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	raw, err := c.fetchRaw(ctx)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Encrypted string `json:"encrypted"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Encrypted != "" {
		plain, err := Decrypt(envelope.Encrypted, c.cfg.UUID, c.cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("cookiecloud: decrypt: %w", err)
		}
		raw = plain
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("cookiecloud: parse snapshot: %w", err)
	}
	if snap.CookieData == nil {
		return nil, errors.New("cookiecloud: snapshot has no cookie_data")
	}
	return &snap, nil
}

func (c *Client) fetchRaw(ctx context.Context) ([]byte, error) {
	if c.cfg.InputFile != "" {
		data, err := os.ReadFile(c.cfg.InputFile)
		if err != nil {
			return nil, fmt.Errorf("cookiecloud: read input file: %w", err)
		}
		return data, nil
	}

	endpoint := strings.TrimSuffix(c.cfg.ServerURL, "/") + "/get/" + url.PathEscape(c.cfg.UUID)
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("cookiecloud: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cookiecloud: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cookiecloud: server returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("cookiecloud: read body: %w", err)
	}
	return body, nil
}

// CookieHeader assembles a Cookie header for a target domain from the
// snapshot. Cookies match when their domain equals the target or is a
// parent of it (".bilibili.com" matches "bilibili.com"). Later cookies with
// the same name win, mirroring how a browser would replay them.
func (s *Snapshot) CookieHeader(domain string) string {
	values := make(map[string]string)
	names := make([]string, 0, 8)
	for storedDomain, cookies := range s.CookieData {
		if !domainMatches(storedDomain, domain) {
			continue
		}
		for _, ck := range cookies {
			if ck.Name == "" {
				continue
			}
			if _, seen := values[ck.Name]; !seen {
				names = append(names, ck.Name)
			}
			values[ck.Name] = ck.Value
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+values[name])
	}
	return strings.Join(pairs, "; ")
}

// domainMatches reports whether a cookie stored under stored applies to
// target. Both sides are normalized of leading dots; stored may be a parent
// domain of target.
func domainMatches(stored, target string) bool {
	stored = strings.TrimPrefix(strings.ToLower(stored), ".")
	target = strings.TrimPrefix(strings.ToLower(target), ".")
	if stored == "" || target == "" {
		return false
	}
	return stored == target || strings.HasSuffix(target, "."+stored) || strings.HasSuffix(stored, "."+target)
}
