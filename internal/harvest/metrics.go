package harvest

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the harvest layer.
var metrics struct {
	IdentifyRequests  atomic.Int64
	ContainerRequests atomic.Int64
	ItemRequests      atomic.Int64
	ContentRequests   atomic.Int64
	ContentErrors     atomic.Int64
	PageScrapes       atomic.Int64
	CredentialSyncs   atomic.Int64
	BlockedResponses  atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"identify_requests":  metrics.IdentifyRequests.Load(),
		"container_requests": metrics.ContainerRequests.Load(),
		"item_requests":      metrics.ItemRequests.Load(),
		"content_requests":   metrics.ContentRequests.Load(),
		"content_errors":     metrics.ContentErrors.Load(),
		"page_scrapes":       metrics.PageScrapes.Load(),
		"credential_syncs":   metrics.CredentialSyncs.Load(),
		"blocked_responses":  metrics.BlockedResponses.Load(),
		"cache_hits":         hits,
		"cache_misses":       misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"identify_requests", "container_requests", "item_requests",
		"content_requests", "content_errors",
		"page_scrapes", "credential_syncs", "blocked_responses",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for platform sub-packages.
func IncrIdentify()   { metrics.IdentifyRequests.Add(1) }
func IncrContainers() { metrics.ContainerRequests.Add(1) }
func IncrItems()      { metrics.ItemRequests.Add(1) }
func IncrContent()    { metrics.ContentRequests.Add(1) }
func IncrContentErr() { metrics.ContentErrors.Add(1) }
func IncrPageScrape() { metrics.PageScrapes.Add(1) }
func IncrCredSync()   { metrics.CredentialSyncs.Add(1) }
func IncrBlocked()    { metrics.BlockedResponses.Add(1) }
