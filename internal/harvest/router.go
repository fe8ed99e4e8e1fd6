package harvest

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// Router owns the registered platform clients and dispatches URL-based and
// aggregate operations to them in the fixed platform order.
type Router struct {
	clients map[Platform]Client
}

// NewRouter builds a router over the given clients. Registration order does
// not matter; dispatch always follows PlatformOrder.
func NewRouter(clients ...Client) *Router {
	r := &Router{clients: make(map[Platform]Client, len(clients))}
	for _, c := range clients {
		r.clients[c.Platform()] = c
	}
	return r
}

// Client returns the registered client for p.
func (r *Router) Client(p Platform) (Client, bool) {
	c, ok := r.clients[p]
	return c, ok
}

var bvIDPattern = regexp.MustCompile(`\bBV[0-9A-Za-z]{10,}\b`)

// DetectPlatform classifies input as a platform by hostname, or by bare
// video id for inputs that are not URLs at all.
func DetectPlatform(input string) (Platform, bool) {
	s := strings.TrimSpace(input)
	switch {
	case strings.Contains(s, "bilibili.com"), bvIDPattern.MatchString(s):
		return Bilibili, true
	case strings.Contains(s, "zhihu.com"):
		return Zhihu, true
	case strings.Contains(s, "xiaohongshu.com"), strings.Contains(s, "xhslink.com"):
		return Xiaohongshu, true
	}
	return "", false
}

// Resolve routes a URL to the client that claims it. The hostname names
// the owner directly for most inputs; the ordered scan stays as the
// fallback for anything DetectPlatform cannot place.
func (r *Router) Resolve(rawURL string) (Client, ItemRef, error) {
	if p, ok := DetectPlatform(rawURL); ok {
		if c, ok := r.clients[p]; ok {
			if ref, ok := c.ResolveURL(rawURL); ok {
				return c, ref, nil
			}
		}
	}
	for _, p := range PlatformOrder {
		c, ok := r.clients[p]
		if !ok {
			continue
		}
		if ref, ok := c.ResolveURL(rawURL); ok {
			return c, ref, nil
		}
	}
	return nil, ItemRef{}, &UnsupportedURLError{URL: rawURL}
}

// ContentByURL routes a URL to its owning client and fetches its content.
func (r *Router) ContentByURL(ctx context.Context, rawURL string, opts ContentOptions) (*ContentRecord, error) {
	c, ref, err := r.Resolve(rawURL)
	if err != nil {
		return nil, err
	}
	return c.FetchContent(ctx, ref, opts)
}

// ListResult is one platform's slice of an aggregate container listing.
// A platform that failed carries Err and nil Containers; other platforms'
// results stand on their own.
type ListResult struct {
	Platform   Platform    `json:"platform"`
	Containers []Container `json:"containers"`
	Err        error       `json:"-"`
	ErrMessage string      `json:"error,omitempty"`
}

// ListAll fans out ListContainers to every registered client concurrently
// and returns per-platform results in the fixed platform order. One
// platform failing does not abort the rest.
func (r *Router) ListAll(ctx context.Context, filter KindFilter, limit int) []ListResult {
	results := make([]ListResult, 0, len(PlatformOrder))
	idx := make(map[Platform]int)
	for _, p := range PlatformOrder {
		if _, ok := r.clients[p]; !ok {
			continue
		}
		idx[p] = len(results)
		results = append(results, ListResult{Platform: p})
	}

	var wg sync.WaitGroup
	for p, i := range idx {
		wg.Add(1)
		go func(p Platform, i int) {
			defer wg.Done()
			c := r.clients[p]
			containers, err := c.ListContainers(ctx, "", filter, limit)
			if err != nil {
				slog.Warn("container listing failed", "platform", p, "error", err)
				results[i].Err = err
				results[i].ErrMessage = err.Error()
				return
			}
			results[i].Containers = containers
		}(p, i)
	}
	wg.Wait()
	return results
}
