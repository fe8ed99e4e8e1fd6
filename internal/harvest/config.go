package harvest

import (
	"net/http"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
)

// Config holds all harvest configuration, injected from main.
type Config struct {
	HTTPClient        *http.Client
	Browser           *stealth.BrowserClient // nil = page-state extraction disabled
	RequestTimeout    time.Duration
	PageSize          int // per-request page size for list endpoints
	ItemLimit         int // default cap for ListItems when caller passes 0
	MaxBodyBytes      int64
	UserAgent         string
	RequestsPerSecond float64
	RedisURL          string
	CacheTTL          time.Duration
	CacheMaxEntries   int
}

var cfg Config

// Cfg exposes the harvest configuration for sub-packages (bilibili, zhihu,
// xhs). Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the harvest layer with the given configuration.
func Init(c Config) {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.PageSize <= 0 {
		c.PageSize = 20
	}
	if c.ItemLimit <= 0 {
		c.ItemLimit = 500
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 8 << 20
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.RequestTimeout}
	}
	cfg = c
	Cfg = &cfg
	initLimiter()
}
