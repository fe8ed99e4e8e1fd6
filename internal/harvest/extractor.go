package harvest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	stealth "github.com/anatolykoptev/go-stealth"
)

// StateExtractor pulls the hydrated page state a server-rendered SPA embeds
// in its HTML. Platforms that expose no JSON API (xiaohongshu) and fallback
// paths (zhihu article challenge) are built on it.
type StateExtractor interface {
	// ExtractState fetches pageURL with the given cookie and returns the
	// embedded initial-state object as raw JSON.
	ExtractState(ctx context.Context, pageURL, cookie string) (json.RawMessage, error)

	// FetchPage fetches pageURL and returns the raw HTML.
	FetchPage(ctx context.Context, pageURL, cookie string) ([]byte, error)
}

const initialStateMarker = "window.__INITIAL_STATE__="

// StealthExtractor implements StateExtractor over a TLS-fingerprinting
// browser client, which is enough to receive the server-rendered state
// without driving a real browser.
type StealthExtractor struct {
	Platform Platform
	Client   *stealth.BrowserClient
}

// NewStealthExtractor builds an extractor for p, or an error when no browser
// client is configured.
func NewStealthExtractor(p Platform) (*StealthExtractor, error) {
	if cfg.Browser == nil {
		return nil, fmt.Errorf("%s: page-state extraction requires a browser client", p)
	}
	return &StealthExtractor{Platform: p, Client: cfg.Browser}, nil
}

func (se *StealthExtractor) FetchPage(ctx context.Context, pageURL, cookie string) ([]byte, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	headers := stealth.ChromeHeaders()
	if cookie != "" {
		headers["Cookie"] = cookie
	}
	body, _, status, err := se.Client.Do("GET", pageURL, headers, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{Platform: se.Platform, Op: "fetch page", Err: err}
		}
		return nil, fmt.Errorf("%s: fetch %s: %w", se.Platform, redactURL(pageURL), err)
	}
	if status < 200 || status > 299 {
		slog.Debug("page fetch non-2xx", "platform", se.Platform, "status", status, "url", redactURL(pageURL))
		return nil, &HTTPStatusError{Status: status, Snippet: snippet(body)}
	}
	return body, nil
}

func (se *StealthExtractor) ExtractState(ctx context.Context, pageURL, cookie string) (json.RawMessage, error) {
	body, err := se.FetchPage(ctx, pageURL, cookie)
	if err != nil {
		return nil, err
	}
	state, ok := ParseInitialState(body)
	if !ok {
		return nil, &UpstreamFormatError{Platform: se.Platform, Op: "extract state", Detail: "initial state not found in page"}
	}
	return state, nil
}

var undefinedValue = regexp.MustCompile(`:\s*undefined\b`)

// ParseInitialState locates the inline window.__INITIAL_STATE__ assignment
// and returns the state object as valid JSON. The inline literal is
// JavaScript, not strict JSON: bare undefined values are rewritten to null.
func ParseInitialState(html []byte) (json.RawMessage, bool) {
	idx := bytes.Index(html, []byte(initialStateMarker))
	if idx < 0 {
		return nil, false
	}
	rest := bytes.TrimLeft(html[idx+len(initialStateMarker):], " \t\r\n")
	obj := extractJSON(rest)
	if obj == nil {
		return nil, false
	}
	obj = undefinedValue.ReplaceAll(obj, []byte(":null"))
	if !json.Valid(obj) {
		return nil, false
	}
	return json.RawMessage(obj), true
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	var prev byte
	for i, c := range b {
		if inStr {
			if c == '"' && prev != '\\' {
				inStr = false
			}
		} else {
			switch c {
			case '"':
				inStr = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return b[:i+1]
				}
			}
		}
		prev = c
	}
	return nil
}

// RawValue unmarshals a field that reactive serializers may wrap as
// {"_rawValue": v}. Both the wrapped and the plain form decode into out.
func RawValue(data json.RawMessage, out any) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapper struct {
			Raw json.RawMessage `json:"_rawValue"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err == nil && wrapper.Raw != nil {
			return json.Unmarshal(wrapper.Raw, out)
		}
	}
	return json.Unmarshal(data, out)
}
