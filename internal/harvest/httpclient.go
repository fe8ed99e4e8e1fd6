package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
	stealth "github.com/anatolykoptev/go-stealth"
	"golang.org/x/time/rate"
)

// HTTPStatusError is a non-2xx response. Platform clients map it to the
// typed error set (auth, blocked) based on platform-specific status codes.
type HTTPStatusError struct {
	Status  int
	Snippet string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.Status, e.Snippet)
}

var limiter *rate.Limiter

func initLimiter() {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}
	limiter = rate.NewLimiter(rate.Limit(rps), 1)
}

// GetJSON performs one rate-limited GET and decodes the body into out.
// Exactly one attempt: failures surface to the caller, never retried here.
func GetJSON(ctx context.Context, p Platform, rawURL, cookie string, headers map[string]string, out any) error {
	body, err := GetBody(ctx, p, rawURL, cookie, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &UpstreamFormatError{Platform: p, Op: "decode", Detail: snippet(body)}
	}
	return nil
}

// GetBody performs one rate-limited GET and returns the raw body. Non-2xx
// responses return *HTTPStatusError with a short body snippet.
func GetBody(ctx context.Context, p Platform, rawURL, cookie string, headers map[string]string) ([]byte, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = stealth.RandomUserAgent()
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{Platform: p, Op: "GET " + redactURL(rawURL), Err: err}
		}
		return nil, fmt.Errorf("%s: GET %s: %w", p, redactURL(rawURL), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, cfg.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", p, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Debug("upstream non-2xx", "platform", p, "status", resp.StatusCode, "url", redactURL(rawURL))
		return nil, &HTTPStatusError{Status: resp.StatusCode, Snippet: snippet(body)}
	}
	return body, nil
}

// snippet trims a response body to a loggable fragment. Rune-safe so CJK
// error pages do not get cut mid-character.
func snippet(body []byte) string {
	return strutil.TruncateWith(strings.TrimSpace(string(body)), 200, "")
}

// redactURL strips the query string so tokens never reach logs or errors.
func redactURL(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
