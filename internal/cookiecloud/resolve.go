package cookiecloud

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anatolykoptev/go-kit/env"

	"favharvest/internal/harvest"
)

// Env names accepted for server configuration. Both underscore styles from
// deployed sync extensions are honored, first non-empty wins.
var (
	uuidEnvNames     = []string{"COOKIECLOUD_UUID", "COOKIECLOUDUUID"}
	passwordEnvNames = []string{"COOKIECLOUD_PASSWORD", "COOKIECLOUDPASSWORD"}
	serverEnvNames   = []string{"COOKIECLOUD_SERVER_URL", "COOKIECLOUDSERVER_URL"}
)

// cookieEnvNames maps each platform to the env vars checked before falling
// back to CookieCloud.
var cookieEnvNames = map[harvest.Platform][]string{
	harvest.Bilibili:    {"BILIBILI_COOKIE"},
	harvest.Zhihu:       {"ZHIHU_COOKIE"},
	harvest.Xiaohongshu: {"XIAOHONGSHU_COOKIE", "XHS_COOKIE"},
}

// cookieEnvPrefixes lists per-platform wildcard prefixes checked after the
// exact names, so multi-account setups like BILIBILI_COOKIE_MAIN work.
var cookieEnvPrefixes = map[harvest.Platform]string{
	harvest.Bilibili: "BILIBILI_COOKIE_",
}

// platformDomains maps each platform to the cookie domain filtered out of a
// synced snapshot.
var platformDomains = map[harvest.Platform]string{
	harvest.Bilibili:    "bilibili.com",
	harvest.Zhihu:       "zhihu.com",
	harvest.Xiaohongshu: "xiaohongshu.com",
}

func envFirst(names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// envPrefix returns the value of the lexicographically first non-empty env
// var whose name starts with prefix. Sorting keeps the pick deterministic
// when several accounts are configured.
func envPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	var names []string
	for _, kv := range os.Environ() {
		name, _, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return envFirst(names)
}

// ConfigFromEnv reads CookieCloud settings from the environment.
func ConfigFromEnv() Config {
	return Config{
		ServerURL: envFirst(serverEnvNames),
		UUID:      envFirst(uuidEnvNames),
		Password:  envFirst(passwordEnvNames),
		InputFile: env.Str("COOKIECLOUD_INPUT_FILE", ""),
		Timeout:   env.Duration("COOKIECLOUD_TIMEOUT", 10*time.Second),
	}
}

// Resolver hands out per-platform CredentialFuncs over one shared snapshot
// fetch: however many platforms ask, CookieCloud is contacted at most once
// per process.
type Resolver struct {
	override string // --cookie flag value, applies to every platform
	client   *Client
	newErr   error

	once sync.Once
	snap *Snapshot
	err  error
}

// NewResolver builds a resolver. override is the CLI cookie override ("" if
// unset). A missing CookieCloud configuration is not an error here; it only
// surfaces when a platform actually needs a synced cookie.
func NewResolver(override string, cfg Config, httpClient *http.Client) *Resolver {
	r := &Resolver{override: override}
	r.client, r.newErr = New(cfg, httpClient)
	return r
}

func (r *Resolver) snapshot(ctx context.Context) (*Snapshot, error) {
	r.once.Do(func() {
		if r.newErr != nil {
			r.err = r.newErr
			return
		}
		harvest.IncrCredSync()
		r.snap, r.err = r.client.Fetch(ctx)
		if r.err != nil {
			slog.Warn("cookiecloud: snapshot unavailable", "error", r.err)
			return
		}
		slog.Debug("cookiecloud: snapshot fetched", "domains", len(r.snap.CookieData))
	})
	return r.snap, r.err
}

// For returns the credential resolver for one platform. Priority: explicit
// override, then the platform's env vars, then the synced snapshot.
func (r *Resolver) For(p harvest.Platform) harvest.CredentialFunc {
	if r.override != "" {
		return harvest.StaticCredentials(r.override, harvest.SourceOverride)
	}
	if cookie := envFirst(cookieEnvNames[p]); cookie != "" {
		return harvest.StaticCredentials(cookie, harvest.SourceEnv)
	}
	if cookie := envPrefix(cookieEnvPrefixes[p]); cookie != "" {
		return harvest.StaticCredentials(cookie, harvest.SourceEnv)
	}
	return func(ctx context.Context) (harvest.Credentials, error) {
		snap, err := r.snapshot(ctx)
		if err != nil {
			return harvest.Credentials{}, &harvest.NoCredentialsError{
				Platform: p,
				Tried:    triedSources(p),
			}
		}
		header := snap.CookieHeader(platformDomains[p])
		if header == "" {
			return harvest.Credentials{}, &harvest.NoCredentialsError{
				Platform: p,
				Tried:    triedSources(p),
			}
		}
		return harvest.Credentials{Cookie: header, Source: harvest.SourceSync}, nil
	}
}

// triedSources names every place a cookie was looked for, in order.
func triedSources(p harvest.Platform) []string {
	tried := append([]string{"--cookie"}, cookieEnvNames[p]...)
	if prefix, ok := cookieEnvPrefixes[p]; ok {
		tried = append(tried, prefix+"*")
	}
	return append(tried, "cookiecloud")
}
